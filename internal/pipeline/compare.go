package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/vision-lab/internal/annotate"
	"github.com/ironsheep/vision-lab/internal/detection"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/report"
)

// panelGap separates the panels of the comparison image.
const panelGap = 10

// Comparison is the result of running each method on the same frame.
type Comparison struct {
	Input string
	Runs  []report.MethodRun

	// Image has one annotated panel per successful run, left to right.
	Image       image.Image
	Output      string
	OutputBytes int64
}

// Compare opens every factory of every target in job separately and runs it
// on the same preprocessed frame. A method that cannot be opened or fails is
// recorded in its run and the comparison moves on. The annotated panels of
// the successful runs are written side by side to job.Output.
func (p *Pipeline) Compare(ctx context.Context, job Job) (*Comparison, error) {
	log := p.logger()
	tr := p.track(0)

	img, _, err := p.load(tr, job.Input)
	if err != nil {
		return nil, err
	}
	prep := p.prepare(tr, img, job)
	frame := frameOf(prep)

	cmp := &Comparison{Input: job.Input}
	var panels []image.Image
	for _, t := range job.Targets {
		for _, f := range t.Factories {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			run, panel := p.compareOne(ctx, t, f, frame, prep.Display, job.Overlay.FontSize)
			cmp.Runs = append(cmp.Runs, run)
			if run.Err != nil {
				log.Infow("method skipped", "method", f.Method, "reason", run.Err)
				continue
			}
			log.Infow("method compared", "method", run.Method, "count", run.Count, "elapsed", run.Elapsed)
			panels = append(panels, panel)
		}
	}
	if len(panels) == 0 {
		return cmp, errors.Wrap(detection.ErrNoDetector, "compare")
	}

	cmp.Image, err = imaging.SideBySide(panelGap, panels...)
	if err != nil {
		return nil, errors.Wrap(err, "compose comparison")
	}
	n, err := imaging.Save(cmp.Image, job.Output, job.JPEGQuality)
	if err != nil {
		return nil, errors.Wrap(err, "save")
	}
	cmp.Output, cmp.OutputBytes = job.Output, n
	return cmp, nil
}

func (p *Pipeline) compareOne(ctx context.Context, t Target, f detection.Factory, frame *detection.Frame, base image.Image, fontSize float64) (report.MethodRun, image.Image) {
	det, err := f.Open()
	if err != nil {
		return report.MethodRun{Method: f.Method, Err: err}, nil
	}
	defer det.Close()

	start := time.Now()
	dets, err := det.Detect(ctx, frame)
	elapsed := time.Since(start)
	if err != nil {
		return report.MethodRun{Method: det.Method(), Err: err}, nil
	}
	if t.Filter != nil {
		dets = t.Filter(dets)
	}

	summary := report.CategorySummary{Category: t.Category, Method: det.Method(), Detections: dets, Elapsed: elapsed}
	res := annotate.Annotate(base, []annotate.Group{{Category: t.Category, Detections: dets, Style: t.Style}},
		annotate.Overlay{Header: headerLines([]report.CategorySummary{summary}), HeaderColor: annotate.Blue, FontSize: fontSize})
	return report.MethodRun{Method: det.Method(), Count: len(dets), Elapsed: elapsed}, res.Image
}
