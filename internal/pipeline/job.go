package pipeline

import (
	"github.com/ironsheep/vision-lab/internal/config"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/monitor"
)

// Job is one image run with every location passed explicitly.
type Job struct {
	Title string

	Input  string
	Output string

	MaxDimension int
	JPEGQuality  int
	Enhance      imaging.Enhancement

	Targets []Target
	Overlay config.Overlay

	// Monitor enables the memory readings around detection and the resource
	// sample after saving. It has no effect when the pipeline has no sampler.
	Monitor bool
	Alerts  monitor.Thresholds

	// ReportFile, when set, receives a plain-text copy of the report.
	ReportFile string
	Details    bool
}

// NewJob builds a job from a validated config.
func NewJob(cfg *config.Config) (Job, error) {
	targets, err := BuildTargets(cfg)
	if err != nil {
		return Job{}, err
	}
	return Job{
		Title:        cfg.Report.Title,
		Input:        cfg.Input,
		Output:       cfg.Output,
		MaxDimension: cfg.MaxDimension,
		JPEGQuality:  cfg.JPEGQuality,
		Enhance:      cfg.Enhance,
		Targets:      targets,
		Overlay:      cfg.Overlay,
		Monitor:      cfg.Monitor.Enabled,
		Alerts:       cfg.Alerts,
		ReportFile:   cfg.Report.File,
		Details:      cfg.Report.Details,
	}, nil
}

// NewSampler builds the resource sampler cfg asks for. It returns a nil
// Sampler when monitoring is off.
func NewSampler(cfg *config.Config) Sampler {
	if !cfg.Monitor.Enabled {
		return nil
	}
	var board *monitor.Tegrastats
	if cfg.Monitor.Tegrastats {
		board = monitor.DefaultTegrastats()
		if cfg.Monitor.TegrastatsCommand != "" {
			board.Command = cfg.Monitor.TegrastatsCommand
		}
		if cfg.Monitor.TegrastatsArgs != nil {
			board.Args = cfg.Monitor.TegrastatsArgs
		}
		if cfg.Monitor.TegrastatsDuration > 0 {
			board.Duration = cfg.Monitor.TegrastatsDuration
		}
	}
	return monitor.NewSampler(cfg.Monitor.CPUInterval, board)
}
