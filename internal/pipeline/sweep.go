package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/report"
)

// Variant is one preprocessing setting tried by Sweep.
type Variant struct {
	Name         string
	MaxDimension int
	Enhance      imaging.Enhancement
}

// ScaleVariants returns one variant per bound, named "<n>px", each with
// enhance applied.
func ScaleVariants(bounds []int, enhance imaging.Enhancement) []Variant {
	out := make([]Variant, 0, len(bounds))
	for _, b := range bounds {
		name := fmt.Sprintf("%dpx", b)
		if !enhance.IsZero() {
			name += " enhanced"
		}
		out = append(out, Variant{Name: name, MaxDimension: b, Enhance: enhance})
	}
	return out
}

// Sweep runs job's detectors on the same input once per variant and reports
// the processed size, object count and detection time of each. The input is
// decoded once and the detectors are opened once. Nothing is written.
func (p *Pipeline) Sweep(ctx context.Context, job Job, variants []Variant) ([]report.VariantRun, error) {
	tr := p.track(0)
	img, _, err := p.load(tr, job.Input)
	if err != nil {
		return nil, err
	}
	session, err := OpenSession(ctx, job.Targets, p.logger())
	if err != nil {
		return nil, err
	}
	defer session.Close()

	runs := make([]report.VariantRun, 0, len(variants))
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		vj := job
		vj.MaxDimension, vj.Enhance = v.MaxDimension, v.Enhance
		prep := p.prepare(tr, img, vj)

		run := report.VariantRun{Name: v.Name, Processed: prep.Size()}
		start := time.Now()
		cats, err := session.Detect(ctx, frameOf(prep))
		run.Elapsed = time.Since(start)
		if err != nil {
			run.Err = err
		} else {
			for _, c := range cats {
				run.Objects += c.Count()
			}
		}
		p.logger().Infow("variant done", "variant", v.Name, "objects", run.Objects, "elapsed", run.Elapsed)
		runs = append(runs, run)
	}
	return runs, nil
}
