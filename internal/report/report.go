package report

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/ironsheep/vision-lab/internal/detection"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/monitor"
)

// CategorySummary is the outcome of one detection target.
type CategorySummary struct {
	Category   detection.Category    `json:"category"`
	Label      string                `json:"label"`
	Method     string                `json:"method"`
	Detections []detection.Detection `json:"detections"`
	Elapsed    time.Duration         `json:"elapsed"`
}

// Count returns the number of detections.
func (c CategorySummary) Count() int { return len(c.Detections) }

// Stage is one timed pipeline stage.
type Stage struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// Report is everything printed after a run.
type Report struct {
	Title string `json:"title"`

	Input     string       `json:"input"`
	InputInfo imaging.Info `json:"input_info"`
	Processed image.Point  `json:"processed"`

	Categories []CategorySummary `json:"categories"`
	Stages     []Stage           `json:"stages"`
	Total      time.Duration     `json:"total"`

	MemoryBefore *monitor.MemoryStat     `json:"memory_before,omitempty"`
	MemoryAfter  *monitor.MemoryStat     `json:"memory_after,omitempty"`
	Resources    *monitor.ResourceSample `json:"resources,omitempty"`
	Alerts       []monitor.Alert         `json:"alerts,omitempty"`

	Output      string `json:"output"`
	OutputBytes int64  `json:"output_bytes"`
	BoxesDrawn  int    `json:"boxes_drawn"`

	Generated time.Time `json:"generated"`
}

// TotalObjects sums detections over all categories.
func (r *Report) TotalObjects() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Count()
	}
	return n
}

// DetectionTime sums the per-category detection times.
func (r *Report) DetectionTime() time.Duration {
	var d time.Duration
	for _, c := range r.Categories {
		d += c.Elapsed
	}
	return d
}

// Options controls rendering.
type Options struct {
	// Color enables ANSI status colors; leave off for files and pipes.
	Color bool

	// Details lists every detection with position, size and confidence.
	Details bool
}

// Render writes the fixed-layout report to w.
func Render(w io.Writer, r *Report, opts Options) error {
	p := newPrinter(w, opts.Color)

	if r.Title != "" {
		p.line(strings.ToUpper(r.Title))
		p.blank()
	}

	p.section("DETECTION RESULTS")
	if r.Input != "" {
		p.linef("Input Image: %s (%dx%d, %d channels, %s)", r.Input,
			r.InputInfo.Width, r.InputInfo.Height, r.InputInfo.Channels, r.InputInfo.Format)
	}
	if r.Processed != (image.Point{}) {
		p.linef("Processed Size: %dx%d", r.Processed.X, r.Processed.Y)
	}
	for _, c := range r.Categories {
		p.linef("%s Detected: %d", c.Category.Plural(), c.Count())
	}
	p.linef("Total Objects: %d", r.TotalObjects())
	for _, c := range r.Categories {
		p.linef("%s Detection Method: %s", c.Category.Title(), c.Method)
	}
	p.blank()

	if opts.Details && r.TotalObjects() > 0 {
		p.section("DETECTION DETAILS")
		for _, c := range r.Categories {
			for i, d := range c.Detections {
				p.linef("%s", describe(c.Label, i+1, d))
			}
		}
		p.blank()
	}

	p.section("PERFORMANCE METRICS")
	for _, s := range r.Stages {
		p.linef("%s Time: %s", s.Name, seconds(s.Elapsed))
	}
	for _, c := range r.Categories {
		p.linef("%s Detection Time: %s", c.Category.Title(), seconds(c.Elapsed))
	}
	if len(r.Categories) > 1 {
		p.linef("Total Detection Time: %s", seconds(r.DetectionTime()))
	}
	p.linef("Total Processing Time: %s", seconds(r.Total))
	p.blank()

	p.section("SYSTEM RESOURCES")
	renderResources(p, r)
	p.blank()

	if len(r.Alerts) > 0 {
		p.section("ALERTS")
		for _, a := range r.Alerts {
			p.warn(a.Message)
		}
		p.blank()
	}

	if r.Output != "" {
		p.section("OUTPUT")
		p.ok(fmt.Sprintf("Annotated image saved: %s (%dx%d, %s, %d boxes)", r.Output,
			r.Processed.X, r.Processed.Y, units.HumanSize(float64(r.OutputBytes)), r.BoxesDrawn))
		if !r.Generated.IsZero() {
			p.linef("Generated: %s", r.Generated.Format(time.RFC3339))
		}
	}
	return p.err
}

func renderResources(p *printer, r *Report) {
	res := r.Resources
	if res == nil {
		p.line("Resource monitoring: disabled")
		return
	}

	if res.CPUError != "" {
		p.warn("CPU Usage: not collected (" + res.CPUError + ")")
	} else {
		p.linef("CPU Usage: %.1f%%", res.CPUPercent)
	}

	if r.MemoryBefore != nil {
		p.linef("Memory Before: %s", gigabytes(int64(r.MemoryBefore.Used)))
	}
	if r.MemoryAfter != nil {
		p.linef("Memory After: %s", gigabytes(int64(r.MemoryAfter.Used)))
	}
	if r.MemoryBefore != nil && r.MemoryAfter != nil {
		p.linef("Memory Used: %s", gigabytes(int64(r.MemoryAfter.Used)-int64(r.MemoryBefore.Used)))
	}
	if res.MemoryError != "" {
		p.warn("Memory: not collected (" + res.MemoryError + ")")
	} else if res.Memory.Total > 0 {
		p.linef("Memory Usage: %.1f%% of %s", res.Memory.UsedPercent, gigabytes(int64(res.Memory.Total)))
	}

	if !res.Board.Available {
		p.warn("GPU/Board Statistics: not collected (" + res.Board.Reason + ")")
		return
	}
	p.line("GPU/Board Statistics:")
	p.line(BoardTable(res.Board.Stats))
}

func describe(label string, n int, d detection.Detection) string {
	s := fmt.Sprintf("  %s #%d: x=%d, y=%d, w=%d, h=%d", label, n, d.Box.Min.X, d.Box.Min.Y, d.Box.Dx(), d.Box.Dy())
	if d.Scored {
		s += fmt.Sprintf(", confidence=%.2f", d.Confidence)
	}
	return s
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f seconds", d.Seconds())
}

// gigabytes formats a byte count in binary gigabytes, the unit the memory
// readings are conventionally shown in.
func gigabytes(b int64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/float64(units.GiB))
}

// WriteFile renders r without color into path.
func WriteFile(path string, r *Report, opts Options) error {
	opts.Color = false
	var buf bytes.Buffer
	if err := Render(&buf, r, opts); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
