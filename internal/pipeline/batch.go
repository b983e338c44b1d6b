package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/report"
)

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// OutputDir receives the annotated images; empty writes next to each input.
	OutputDir string
	// Suffix is appended to each input stem, giving "<stem>_<suffix>.jpg".
	Suffix string
	// Workers bounds concurrent files; zero or one processes them in order.
	Workers int
}

// BatchInputs lists the decodable images (.jpg, .jpeg, .png, .gif) in dir in
// name order. Files previously written
// by a batch with the same suffix are skipped.
func BatchInputs(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read batch folder")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsImageFile(e.Name()) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if suffix != "" && strings.HasSuffix(stem, "_"+suffix) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// RunBatch runs template over every image in dir. Each file gets its own
// Input and Output; everything else comes from template. Detectors are opened
// once and shared. A failing file is recorded in the summary and the batch
// continues; the returned error combines every per-file failure and is nil
// when all files succeeded. Resources are sampled once, after the last file.
func (p *Pipeline) RunBatch(ctx context.Context, dir string, template Job, opts BatchOptions) (*report.BatchSummary, error) {
	start := p.now()
	log := p.logger()

	inputs, err := BatchInputs(dir, opts.Suffix)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.Errorf("no images in %s", dir)
	}
	log.Infow("batch started", "folder", dir, "images", len(inputs), "workers", opts.Workers)

	session, err := OpenSession(ctx, template.Targets, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnw("failed to close detectors", "error", err)
		}
	}()

	summary := &report.BatchSummary{Dir: dir, Methods: session.Methods(), Items: make([]report.BatchItem, len(inputs))}
	log.Infow("batch detectors ready", "methods", summary.Methods)
	process := func(ctx context.Context, i int) {
		job := template
		job.Input = inputs[i]
		job.Output = imaging.DerivedName(inputs[i], opts.OutputDir, opts.Suffix)
		r, err := p.processOne(ctx, session, job)
		summary.Items[i] = report.BatchItem{Input: filepath.Base(inputs[i]), Report: r, Err: err}
		if err != nil {
			log.Errorw("image failed", "input", inputs[i], "error", err)
			return
		}
		log.Infow("image done", "input", inputs[i], "objects", r.TotalObjects(), "output", job.Output)
	}

	if opts.Workers <= 1 {
		for i := range inputs {
			if ctx.Err() != nil {
				summary.Items[i] = report.BatchItem{Input: filepath.Base(inputs[i]), Err: ctx.Err()}
				continue
			}
			process(ctx, i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range inputs {
			// Items[i] is written by this goroutine only.
			g.Go(func() error {
				if gctx.Err() != nil {
					summary.Items[i] = report.BatchItem{Input: filepath.Base(inputs[i]), Err: gctx.Err()}
					return nil
				}
				process(gctx, i)
				return nil
			})
		}
		_ = g.Wait()
	}

	if template.Monitor && p.Sampler != nil {
		summary.Resources = p.Sampler.Sample(ctx)
	}
	summary.Elapsed = p.now().Sub(start)

	var errs error
	for _, it := range summary.Items {
		if it.Err != nil {
			errs = multierr.Append(errs, errors.Wrap(it.Err, it.Input))
		}
	}
	return summary, errs
}

// processOne runs the per-file stages with an already open session.
func (p *Pipeline) processOne(ctx context.Context, session *Session, job Job) (*report.Report, error) {
	start := p.now()
	tr := p.track(0)

	img, info, err := p.load(tr, job.Input)
	if err != nil {
		return nil, err
	}
	prep := p.prepare(tr, img, job)

	r := &report.Report{
		Title:     job.Title,
		Input:     job.Input,
		InputInfo: info,
		Processed: prep.Size(),
	}
	done := tr.step("Detection", "Detecting objects")
	if r.Categories, err = session.Detect(ctx, frameOf(prep)); err != nil {
		return nil, err
	}
	done()

	if _, err := p.annotateAndSave(tr, prep, job, r); err != nil {
		return nil, err
	}
	r.Stages = tr.stages
	r.Total = p.now().Sub(start)
	r.Generated = p.now()
	return r, nil
}
