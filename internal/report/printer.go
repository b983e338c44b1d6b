package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// printer writes report lines and remembers the first write error.
type printer struct {
	w   io.Writer
	err error

	good, bad, caution, heading *color.Color
}

func newPrinter(w io.Writer, useColor bool) *printer {
	p := &printer{
		w:       w,
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed, color.Bold),
		caution: color.New(color.FgYellow),
		heading: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.good, p.bad, p.caution, p.heading} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *printer) blank() { p.line("") }

func (p *printer) section(name string) {
	p.line(p.heading.Sprintf("===== %s =====", name))
}

func (p *printer) ok(msg string)   { p.line(p.good.Sprint("✅ " + msg)) }
func (p *printer) fail(msg string) { p.line(p.bad.Sprint("❌ " + msg)) }
func (p *printer) warn(msg string) { p.line(p.caution.Sprint("⚠️  " + msg)) }

// Status prints a single color-coded status line, the format used for
// progress and error messages outside the report body.
func Status(w io.Writer, useColor bool, kind StatusKind, msg string) {
	p := newPrinter(w, useColor)
	switch kind {
	case StatusOK:
		p.ok(msg)
	case StatusWarn:
		p.warn(msg)
	default:
		p.fail(msg)
	}
}

// StatusKind selects the mark and color of a status line.
type StatusKind int

const (
	StatusOK StatusKind = iota
	StatusWarn
	StatusError
)
