package report

import (
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ironsheep/vision-lab/internal/monitor"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

// BoardTable formats parsed tegrastats output as a bordered two-column table.
func BoardTable(b *monitor.BoardStats) string {
	t := newTable()
	t.AppendHeader(table.Row{"Metric", "Value"})
	if b == nil {
		t.AppendRow(table.Row{"status", "no statistics"})
		return t.Render()
	}

	if b.HasRAM {
		t.AppendRow(table.Row{"RAM", fmt.Sprintf("%d / %d MB (%.1f%%)", b.RAMUsedMB, b.RAMTotalMB, b.RAMPercent())})
	}
	if b.HasSwap {
		t.AppendRow(table.Row{"SWAP", fmt.Sprintf("%d / %d MB", b.SwapUsedMB, b.SwapTotalMB)})
	}
	for i, c := range b.Cores {
		value := "off"
		if c.Online {
			value = fmt.Sprintf("%.0f%% @ %d MHz", c.LoadPct, c.FreqMHz)
		}
		t.AppendRow(table.Row{fmt.Sprintf("CPU%d", i), value})
	}
	if b.HasEMC {
		t.AppendRow(table.Row{"EMC", fmt.Sprintf("%.0f%%", b.EMCPct)})
	}
	if b.HasGPU {
		value := fmt.Sprintf("%.0f%%", b.GPUPct)
		if b.GPUFreqMHz > 0 {
			value += fmt.Sprintf(" @ %d MHz", b.GPUFreqMHz)
		}
		t.AppendRow(table.Row{"GPU (GR3D)", value})
	}
	for _, s := range b.Temperatures {
		if s.Celsius <= -100 {
			continue
		}
		t.AppendRow(table.Row{s.Name + " temp", fmt.Sprintf("%.1f C", s.Celsius)})
	}
	for _, r := range b.Rails {
		t.AppendRow(table.Row{r.Name, fmt.Sprintf("%d mW (avg %d mW)", r.CurrentMW, r.AverageMW)})
	}
	return t.Render()
}

// BatchItem is one file of a batch run.
type BatchItem struct {
	Input  string
	Report *Report
	Err    error
}

// BatchSummary is the outcome of a folder run.
type BatchSummary struct {
	Dir       string
	Methods   []string // opened method per target
	Items     []BatchItem
	Elapsed   time.Duration
	Resources *monitor.ResourceSample
}

// Succeeded counts files processed without error.
func (s *BatchSummary) Succeeded() int {
	n := 0
	for _, it := range s.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// RenderBatch writes a per-file table followed by totals.
func RenderBatch(w io.Writer, s *BatchSummary, opts Options) error {
	p := newPrinter(w, opts.Color)
	p.section("BATCH RESULTS")
	p.linef("Folder: %s", s.Dir)
	if len(s.Methods) > 0 {
		p.linef("Methods: %s", strings.Join(s.Methods, ", "))
	}

	var categories []string
	seen := map[string]bool{}
	for _, it := range s.Items {
		if it.Report == nil {
			continue
		}
		for _, c := range it.Report.Categories {
			if name := c.Category.Plural(); !seen[name] {
				seen[name] = true
				categories = append(categories, name)
			}
		}
	}

	t := newTable()
	header := table.Row{"File"}
	for _, c := range categories {
		header = append(header, c)
	}
	header = append(header, "Time", "Status")
	t.AppendHeader(header)

	totals := make(map[string]int)
	for _, it := range s.Items {
		row := table.Row{it.Input}
		counts := map[string]int{}
		elapsed := "-"
		if it.Report != nil {
			for _, c := range it.Report.Categories {
				counts[c.Category.Plural()] += c.Count()
				totals[c.Category.Plural()] += c.Count()
			}
			elapsed = fmt.Sprintf("%.3fs", it.Report.Total.Seconds())
		}
		for _, c := range categories {
			row = append(row, counts[c])
		}
		status := "ok"
		if it.Err != nil {
			status = "failed: " + it.Err.Error()
		}
		row = append(row, elapsed, status)
		t.AppendRow(row)
	}
	footer := table.Row{"TOTAL"}
	for _, c := range categories {
		footer = append(footer, totals[c])
	}
	footer = append(footer, fmt.Sprintf("%.3fs", s.Elapsed.Seconds()), fmt.Sprintf("%d/%d", s.Succeeded(), len(s.Items)))
	t.AppendFooter(footer)
	p.line(t.Render())
	p.blank()

	if s.Resources != nil {
		p.section("SYSTEM RESOURCES")
		renderResources(p, &Report{Resources: s.Resources})
		p.blank()
	}

	if failed := len(s.Items) - s.Succeeded(); failed > 0 {
		p.fail(fmt.Sprintf("%d of %d images failed", failed, len(s.Items)))
	} else {
		p.ok(fmt.Sprintf("Processed %d images", len(s.Items)))
	}
	return p.err
}

// MethodRun is one detector method's result on the comparison image.
type MethodRun struct {
	Method  string
	Count   int
	Elapsed time.Duration
	Err     error
}

// Trait describes a detection method qualitatively.
type Trait struct {
	Method, Speed, Accuracy, Strengths, Weaknesses string
}

// MethodTraits is the reference comparison of the supported methods.
var MethodTraits = []Trait{
	{"Haar Cascade", "fastest", "moderate", "frontal faces, tiny models, CPU only", "false positives, pose and lighting sensitive"},
	{"HOG", "fast", "good", "upright people, rotation tolerant features", "misses small or occluded objects"},
	{"DNN (SSD)", "moderate", "high", "varied poses and scales, confidence scores", "needs model files, heavier on CPU"},
	{"ONNX (YOLO)", "slow on CPU", "highest", "many classes, robust in clutter", "needs onnxruntime and a large model"},
}

// RenderComparison reports measured per-method counts and times, then the
// reference trait table.
func RenderComparison(w io.Writer, input string, runs []MethodRun, opts Options) error {
	p := newPrinter(w, opts.Color)
	p.section("METHOD COMPARISON")
	p.linef("Input Image: %s", input)

	t := newTable()
	t.AppendHeader(table.Row{"Method", "Objects", "Time", "Status"})
	var fastest *MethodRun
	for i, r := range runs {
		status := "ok"
		count, elapsed := fmt.Sprint(r.Count), fmt.Sprintf("%.3fs", r.Elapsed.Seconds())
		if r.Err != nil {
			status, count, elapsed = strings.TrimSpace(r.Err.Error()), "-", "-"
		} else if fastest == nil || r.Elapsed < fastest.Elapsed {
			fastest = &runs[i]
		}
		t.AppendRow(table.Row{r.Method, count, elapsed, status})
	}
	p.line(t.Render())
	if fastest != nil {
		p.ok(fmt.Sprintf("Fastest method: %s (%.3f seconds)", fastest.Method, fastest.Elapsed.Seconds()))
	}
	p.blank()

	traits := newTable()
	traits.AppendHeader(table.Row{"Method", "Speed", "Accuracy", "Strengths", "Weaknesses"})
	for _, tr := range MethodTraits {
		traits.AppendRow(table.Row{tr.Method, tr.Speed, tr.Accuracy, tr.Strengths, tr.Weaknesses})
	}
	p.line(traits.Render())
	return p.err
}

// VariantRun is the outcome of one preprocessing variant of a sweep.
type VariantRun struct {
	Name      string
	Processed image.Point
	Objects   int
	Elapsed   time.Duration
	Err       error
}

// RenderSweep reports per-variant sizes, counts and detection times.
func RenderSweep(w io.Writer, input string, runs []VariantRun, opts Options) error {
	p := newPrinter(w, opts.Color)
	p.section("PREPROCESSING COMPARISON")
	p.linef("Input Image: %s", input)

	t := newTable()
	t.AppendHeader(table.Row{"Variant", "Size", "Objects", "Time", "Status"})
	var fastest *VariantRun
	for i, r := range runs {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		} else if fastest == nil || r.Elapsed < fastest.Elapsed {
			fastest = &runs[i]
		}
		t.AppendRow(table.Row{r.Name, fmt.Sprintf("%dx%d", r.Processed.X, r.Processed.Y), r.Objects,
			fmt.Sprintf("%.3fs", r.Elapsed.Seconds()), status})
	}
	p.line(t.Render())
	if fastest != nil {
		p.ok(fmt.Sprintf("Fastest variant: %s (%.3f seconds, %d objects)", fastest.Name, fastest.Elapsed.Seconds(), fastest.Objects))
	}
	return p.err
}
