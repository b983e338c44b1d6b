package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/vision-lab/internal/annotate"
	"github.com/ironsheep/vision-lab/internal/detection"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/monitor"
	"github.com/ironsheep/vision-lab/internal/report"
)

// Steps is the number of progress steps a single-image run logs.
const Steps = 8

// Sampler reads resource usage. *monitor.Sampler implements it.
type Sampler interface {
	Memory(ctx context.Context) (monitor.MemoryStat, error)
	Sample(ctx context.Context) *monitor.ResourceSample
}

// Pipeline runs jobs. The zero value is usable: it logs nothing and samples
// nothing.
type Pipeline struct {
	Logger *zap.SugaredLogger

	// Sampler is nil when monitoring is unavailable.
	Sampler Sampler

	// Cache, when set, keeps decoded inputs between runs.
	Cache *imaging.ImageCache

	// Now defaults to time.Now.
	Now func() time.Time
}

// New returns a pipeline logging to logger and sampling with sampler (which
// may be nil).
func New(logger *zap.SugaredLogger, sampler Sampler) *Pipeline {
	return &Pipeline{Logger: logger, Sampler: sampler}
}

// Outcome is the result of a successful run.
type Outcome struct {
	Report    *report.Report
	Annotated image.Image
}

// Run processes one image end to end.
//
// The steps, logged as "[i/8]", are: load, preprocess, open detectors, detect
// (every target in turn), annotate, save, sample resources, and write the
// report file when job.ReportFile is set. Stage timings go into the report.
//
// Parameters:
//   - ctx: Cancels between steps and bounds resource sampling.
//   - job: Input and output paths, preprocessing, targets, overlay and
//     monitoring options.
//
// Returns:
//   - *Outcome: The report and the annotated image.
//   - error: The first fatal error, wrapped with its stage.
//
// # Errors
//
// A missing input matches imaging.ErrImageNotFound and is reported before any
// detector is opened. A bad model matches detection.ErrModelLoad and is
// reported before detection. No usable variant matches detection.ErrNoDetector.
// Resource sampling never fails the run.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Outcome, error) {
	start := p.now()
	tr := p.track(Steps)

	img, info, err := p.load(tr, job.Input)
	if err != nil {
		return nil, err
	}
	prep := p.prepare(tr, img, job)

	done := tr.step("Open", "Opening detectors")
	session, err := OpenSession(ctx, job.Targets, p.logger())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.logger().Warnw("failed to close detectors", "error", err)
		}
	}()
	done()

	r := &report.Report{
		Title:     job.Title,
		Input:     job.Input,
		InputInfo: info,
		Processed: prep.Size(),
	}

	monitoring := job.Monitor && p.Sampler != nil
	if monitoring {
		r.MemoryBefore = p.memory(ctx)
	}
	done = tr.step("Detection", "Detecting objects")
	r.Categories, err = session.Detect(ctx, frameOf(prep))
	if err != nil {
		return nil, err
	}
	done()
	if monitoring {
		r.MemoryAfter = p.memory(ctx)
	}

	annotated, err := p.annotateAndSave(tr, prep, job, r)
	if err != nil {
		return nil, err
	}

	done = tr.step("Sampling", "Sampling system resources")
	if monitoring {
		r.Resources = p.Sampler.Sample(ctx)
		r.Alerts = job.Alerts.Check(r.Resources)
		for _, a := range r.Alerts {
			p.logger().Warnw("resource alert", "resource", a.Resource, "value", a.Value, "limit", a.Limit)
		}
	} else {
		p.logger().Debug("resource monitoring disabled")
	}
	done()

	tr.note("Writing report")
	r.Stages = tr.stages
	r.Total = p.now().Sub(start)
	r.Generated = p.now()
	if job.ReportFile != "" {
		if err := report.WriteFile(job.ReportFile, r, report.Options{Details: job.Details}); err != nil {
			return nil, errors.Wrap(err, "report")
		}
		p.logger().Infow("report written", "path", job.ReportFile)
	}
	return &Outcome{Report: r, Annotated: annotated}, nil
}

// load is step 1. Errors match imaging.ErrImageNotFound or ErrImageDecode.
func (p *Pipeline) load(tr *tracker, path string) (image.Image, imaging.Info, error) {
	done := tr.step("Load", "Loading image "+path)
	var (
		img image.Image
		err error
	)
	if p.Cache != nil {
		img, err = p.Cache.Load(path)
	} else {
		img, err = imaging.Load(path)
	}
	if err != nil {
		return nil, imaging.Info{}, errors.Wrap(err, "load")
	}
	info := imaging.Inspect(img, path)
	p.logger().Debugw("image loaded", "width", info.Width, "height", info.Height, "format", info.Format)
	done()
	return img, info, nil
}

// prepare is step 2.
func (p *Pipeline) prepare(tr *tracker, img image.Image, job Job) *imaging.Prepared {
	done := tr.step("Preprocess", "Preprocessing")
	prep := imaging.Prepare(img, imaging.PrepareOptions{MaxDimension: job.MaxDimension, Enhance: job.Enhance})
	size := prep.Size()
	p.logger().Debugw("frame prepared", "width", size.X, "height", size.Y, "scale", prep.Scale)
	done()
	return prep
}

// annotateAndSave covers steps 5 and 6.
func (p *Pipeline) annotateAndSave(tr *tracker, prep *imaging.Prepared, job Job, r *report.Report) (image.Image, error) {
	done := tr.step("Annotation", "Drawing annotations")
	groups := make([]annotate.Group, 0, len(r.Categories))
	for i, c := range r.Categories {
		groups = append(groups, annotate.Group{Category: c.Category, Detections: c.Detections, Style: job.Targets[i].Style})
	}
	overlay := annotate.Overlay{Legend: job.Overlay.Legend, FontSize: job.Overlay.FontSize, HeaderColor: annotate.Blue}
	if job.Overlay.Header {
		overlay.Header = headerLines(r.Categories)
	}
	if job.Overlay.Timestamp {
		overlay.Timestamp = p.now()
	}
	res := annotate.Annotate(prep.Display, groups, overlay)
	r.BoxesDrawn = res.Boxes
	done()

	done = tr.step("Save", "Saving "+job.Output)
	n, err := imaging.Save(res.Image, job.Output, job.JPEGQuality)
	if err != nil {
		return nil, errors.Wrap(err, "save")
	}
	r.Output, r.OutputBytes = job.Output, n
	done()
	return res.Image, nil
}

func (p *Pipeline) memory(ctx context.Context) *monitor.MemoryStat {
	m, err := p.Sampler.Memory(ctx)
	if err != nil {
		p.logger().Warnw("memory reading failed", "error", err)
		return nil
	}
	return &m
}

func (p *Pipeline) logger() *zap.SugaredLogger {
	if p.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) track(total int) *tracker {
	return &tracker{logger: p.logger(), total: total, now: p.now}
}

func frameOf(prep *imaging.Prepared) *detection.Frame {
	return &detection.Frame{Color: prep.Color, Gray: prep.Gray}
}

// headerLines is the text drawn at the top left: method, count and time for
// a single target, or one count line per target plus the total time.
func headerLines(cats []report.CategorySummary) []string {
	var total time.Duration
	for _, c := range cats {
		total += c.Elapsed
	}
	if len(cats) == 1 {
		c := cats[0]
		return []string{
			"Method: " + c.Method,
			fmt.Sprintf("%s: %d", c.Category.Plural(), c.Count()),
			fmt.Sprintf("Time: %.3fs", total.Seconds()),
		}
	}
	lines := make([]string, 0, len(cats)+1)
	for _, c := range cats {
		lines = append(lines, fmt.Sprintf("%s: %d (%s)", c.Category.Plural(), c.Count(), c.Method))
	}
	return append(lines, fmt.Sprintf("Time: %.3fs", total.Seconds()))
}

// Session holds one opened detector per target. Detectors serialize their own
// Detect calls, so a session may be shared between goroutines.
type Session struct {
	targets   []Target
	detectors []detection.Detector
	logger    *zap.SugaredLogger
}

// OpenSession opens a detector for every target, trying each target's
// factories in order. Detectors already opened are closed again on failure.
func OpenSession(ctx context.Context, targets []Target, logger *zap.SugaredLogger) (*Session, error) {
	if len(targets) == 0 {
		return nil, errors.New("no detection targets")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Session{targets: targets, logger: logger}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, multierr.Append(err, s.Close())
		}
		det, err := detection.Open(t.Category, t.Factories, logger)
		if err != nil {
			return nil, multierr.Append(errors.Wrapf(err, "open %s detector", t.Category), s.Close())
		}
		logger.Infow("detector opened", "category", t.Category, "method", det.Method())
		s.detectors = append(s.detectors, det)
	}
	return s, nil
}

// Methods returns the opened method per target.
func (s *Session) Methods() []string {
	out := make([]string, len(s.detectors))
	for i, d := range s.detectors {
		out[i] = d.Method()
	}
	return out
}

// Detect runs every target's detector on frame, one after another, and
// applies the target's filter.
func (s *Session) Detect(ctx context.Context, frame *detection.Frame) ([]report.CategorySummary, error) {
	out := make([]report.CategorySummary, 0, len(s.detectors))
	for i, det := range s.detectors {
		t := s.targets[i]
		start := time.Now()
		dets, err := det.Detect(ctx, frame)
		if err != nil {
			return nil, errors.Wrapf(err, "detect %s with %s", t.Category, det.Method())
		}
		if t.Filter != nil {
			dets = t.Filter(dets)
		}
		elapsed := time.Since(start)
		s.logger.Infow("detection complete", "category", t.Category, "method", det.Method(),
			"count", len(dets), "elapsed", elapsed)
		out = append(out, report.CategorySummary{
			Category:   t.Category,
			Label:      t.Style.Label,
			Method:     det.Method(),
			Detections: dets,
			Elapsed:    elapsed,
		})
	}
	return out, nil
}

// Close closes every opened detector and combines their errors.
func (s *Session) Close() error {
	var err error
	for _, d := range s.detectors {
		err = multierr.Append(err, d.Close())
	}
	s.detectors = nil
	return err
}

// tracker logs numbered progress steps and records how long each took.
type tracker struct {
	logger *zap.SugaredLogger
	total  int
	n      int
	now    func() time.Time
	stages []report.Stage
}

// step logs the next "[i/total] msg" line and returns a function that records
// the stage duration under name. With total zero the line is logged at debug.
func (t *tracker) step(name, msg string) func() {
	t.note(msg)
	start := t.now()
	return func() {
		t.stages = append(t.stages, report.Stage{Name: name, Elapsed: t.now().Sub(start)})
	}
}

func (t *tracker) note(msg string) {
	t.n++
	if t.total == 0 {
		t.logger.Debug(msg)
		return
	}
	t.logger.Infof("[%d/%d] %s", t.n, t.total, msg)
}
