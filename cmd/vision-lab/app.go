package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/vision-lab/internal/config"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/logging"
	"github.com/ironsheep/vision-lab/internal/pipeline"
	"github.com/ironsheep/vision-lab/internal/report"
)

const (
	flagConfig       = "config"
	flagInput        = "input"
	flagOutput       = "output"
	flagMaxDimension = "max-dimension"
	flagNoMonitor    = "no-monitor"
	flagReportFile   = "report-file"
	flagLogFile      = "log-file"
	flagDebug        = "debug"
	flagPreset       = "preset"
	flagWorkers      = "workers"
	flagSuffix       = "suffix"
	flagOutputDir    = "output-dir"
	flagBrightness   = "brightness"
	flagContrast     = "contrast"
	flagScales       = "scales"
	flagEnhanced     = "with-enhancement"
	flagOut          = "out"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "overlay configuration from `FILE` (YAML)"},
		&cli.StringFlag{Name: flagInput, Aliases: []string{"i"}, Usage: "input image `PATH`"},
		&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "annotated output `PATH`"},
		&cli.IntFlag{Name: flagMaxDimension, Usage: "bound the longer image side to `PIXELS`"},
		&cli.Float64Flag{Name: flagBrightness, Usage: "brightness adjustment in percent (-100..100)"},
		&cli.Float64Flag{Name: flagContrast, Usage: "contrast adjustment in percent (-100..100)"},
		&cli.BoolFlag{Name: flagNoMonitor, Usage: "skip CPU, memory and board sampling"},
		&cli.StringFlag{Name: flagReportFile, Usage: "also write the report to `PATH`"},
		&cli.StringFlag{Name: flagLogFile, Usage: "also write a timestamped JSON log to `PATH`"},
		&cli.BoolFlag{Name: flagDebug, Usage: "enable debug logging (or " + logging.EnvLevel + "=debug)"},
	}
}

func newApp() *cli.App {
	presetCommand := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:   name,
			Usage:  usage,
			Flags:  runFlags(),
			Action: func(c *cli.Context) error { return runAction(c, name) },
		}
	}

	return &cli.App{
		Name:            "vision-lab",
		Usage:           "object detection exercises with resource monitoring",
		Version:         Version,
		HideHelpCommand: true,
		Writer:          os.Stdout,
		ErrWriter:       os.Stderr,
		ExitErrHandler:  exitErrHandler,
		Commands: []*cli.Command{
			presetCommand("assignment1", "detect faces with a Haar cascade (blue boxes)"),
			presetCommand("assignment2", "detect faces with a Haar cascade and report resource usage"),
			presetCommand("assignment3", "detect faces with dlib HOG, falling back to OpenCV DNN, then ONNX"),
			presetCommand("capstone", "detect persons and cars in a street scene with full reporting"),
			{
				Name:  "run",
				Usage: "run any preset, optionally tuned with --config",
				Flags: append(runFlags(), &cli.StringFlag{
					Name: flagPreset, Aliases: []string{"p"}, Value: "assignment1",
					Usage: "preset `NAME` (" + strings.Join(config.Presets(), ", ") + ")",
				}),
				Action: func(c *cli.Context) error { return runAction(c, c.String(flagPreset)) },
			},
			{
				Name:      "batch",
				Usage:     "process every .jpg, .jpeg, .png and .gif image in a folder",
				ArgsUsage: "DIR",
				Flags: append(runFlags(),
					&cli.StringFlag{Name: flagPreset, Aliases: []string{"p"}, Value: "capstone", Usage: "preset `NAME`"},
					&cli.IntFlag{Name: flagWorkers, Aliases: []string{"j"}, Usage: "images processed concurrently"},
					&cli.StringFlag{Name: flagSuffix, Usage: "output name suffix, giving <stem>_<suffix>.jpg"},
					&cli.StringFlag{Name: flagOutputDir, Usage: "write annotated images to `DIR`"},
				),
				Action: batchAction,
			},
			{
				Name:  "compare",
				Usage: "run each detection method of a preset on its own and compare them",
				Flags: append(runFlags(),
					&cli.StringFlag{Name: flagPreset, Aliases: []string{"p"}, Value: "compare", Usage: "preset `NAME`"},
				),
				Action: compareAction,
			},
			{
				Name:  "sweep",
				Usage: "compare detection counts and times across image scales and enhancement",
				Flags: append(runFlags(),
					&cli.StringFlag{Name: flagPreset, Aliases: []string{"p"}, Value: "capstone", Usage: "preset `NAME`"},
					&cli.IntSliceFlag{Name: flagScales, Value: cli.NewIntSlice(400, 800, 1200), Usage: "longer-side bounds to try"},
					&cli.BoolFlag{Name: flagEnhanced, Usage: "also run every scale with brightness/contrast enhancement"},
				),
				Action: sweepAction,
			},
			{
				Name:  "config",
				Usage: "inspect the built-in presets",
				Subcommands: []*cli.Command{
					{
						Name:      "dump",
						Usage:     "print a preset as YAML, ready to edit and pass to --config",
						ArgsUsage: "PRESET",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: flagOut, Usage: "write the YAML to `FILE` instead of stdout"},
						},
						Action: dumpAction,
					},
					{
						Name:  "list",
						Usage: "list the preset names",
						Action: func(c *cli.Context) error {
							for _, name := range config.Presets() {
								fmt.Fprintln(c.App.Writer, name)
							}
							return nil
						},
					},
				},
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "vision-lab %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}

// exitErrHandler prints a failed action as a status line and exits 1.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	code := 1
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		code = ec.ExitCode()
	}
	report.Status(c.App.ErrWriter, useColor(), report.StatusError, err.Error())
	cli.OsExiter(code)
}

func useColor() bool { return !color.NoColor }

// resolveConfig starts from the preset, overlays --config and then the
// individual flags.
func resolveConfig(c *cli.Context, preset string) (*config.Config, error) {
	cfg, err := config.Preset(preset)
	if err != nil {
		return nil, err
	}
	if path := c.String(flagConfig); path != "" {
		if cfg, err = config.Load(path, cfg); err != nil {
			return nil, err
		}
	}
	if c.IsSet(flagInput) {
		cfg.Input = c.String(flagInput)
	}
	if c.IsSet(flagOutput) {
		cfg.Output = c.String(flagOutput)
	}
	if c.IsSet(flagMaxDimension) {
		cfg.MaxDimension = c.Int(flagMaxDimension)
	}
	if c.IsSet(flagBrightness) {
		cfg.Enhance.Brightness = c.Float64(flagBrightness)
	}
	if c.IsSet(flagContrast) {
		cfg.Enhance.Contrast = c.Float64(flagContrast)
	}
	if c.Bool(flagNoMonitor) {
		cfg.Monitor.Enabled = false
	}
	if c.IsSet(flagReportFile) {
		cfg.Report.File = c.String(flagReportFile)
	}
	if c.IsSet(flagLogFile) {
		cfg.Log.File = c.String(flagLogFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// setup resolves the configuration and builds the logger and pipeline.
func setup(c *cli.Context, preset string) (*config.Config, *pipeline.Pipeline, func(), error) {
	cfg, err := resolveConfig(c, preset)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Debug:   c.Bool(flagDebug),
		File:    cfg.Log.File,
		Console: c.App.ErrWriter,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debugw("vision-lab starting", "version", Version, "commit", GitCommit, "preset", cfg.Name)

	p := pipeline.New(logger.Named(cfg.Name), pipeline.NewSampler(cfg))
	cleanup := func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "failed to close log: %v\n", err)
		}
	}
	return cfg, p, cleanup, nil
}

func runAction(c *cli.Context, preset string) error {
	cfg, p, cleanup, err := setup(c, preset)
	if err != nil {
		return err
	}
	defer cleanup()

	job, err := pipeline.NewJob(cfg)
	if err != nil {
		return err
	}
	out, err := p.Run(c.Context, job)
	if err != nil {
		p.Logger.Errorw("run failed", "error", err)
		return err
	}
	return report.Render(c.App.Writer, out.Report, report.Options{Color: useColor(), Details: cfg.Report.Details})
}

func batchAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("batch requires exactly one folder argument")
	}
	dir := c.Args().First()

	cfg, p, cleanup, err := setup(c, c.String(flagPreset))
	if err != nil {
		return err
	}
	defer cleanup()

	opts := pipeline.BatchOptions{OutputDir: cfg.Batch.OutputDir, Suffix: cfg.Batch.Suffix, Workers: cfg.Batch.Workers}
	if c.IsSet(flagOutputDir) {
		opts.OutputDir = c.String(flagOutputDir)
	}
	if c.IsSet(flagSuffix) {
		opts.Suffix = c.String(flagSuffix)
	}
	if c.IsSet(flagWorkers) {
		opts.Workers = c.Int(flagWorkers)
	}

	job, err := pipeline.NewJob(cfg)
	if err != nil {
		return err
	}
	summary, batchErr := p.RunBatch(c.Context, dir, job, opts)
	if summary == nil {
		return batchErr
	}
	if err := report.RenderBatch(c.App.Writer, summary, report.Options{Color: useColor()}); err != nil {
		return err
	}
	if batchErr != nil {
		p.Logger.Warnw("batch finished with failures", "error", batchErr)
		return errors.Errorf("%d of %d images failed", len(summary.Items)-summary.Succeeded(), len(summary.Items))
	}
	return nil
}

func compareAction(c *cli.Context) error {
	cfg, p, cleanup, err := setup(c, c.String(flagPreset))
	if err != nil {
		return err
	}
	defer cleanup()

	job, err := pipeline.NewJob(cfg)
	if err != nil {
		return err
	}
	p.Cache = imaging.NewImageCache()
	cmp, err := p.Compare(c.Context, job)
	if cmp == nil {
		return err
	}
	if rerr := report.RenderComparison(c.App.Writer, cmp.Input, cmp.Runs, report.Options{Color: useColor()}); rerr != nil {
		return rerr
	}
	if err != nil {
		return err
	}
	report.Status(c.App.Writer, useColor(), report.StatusOK, "Comparison image saved: "+cmp.Output)
	return nil
}

// defaultEnhancement is used by sweep when the config sets none.
var defaultEnhancement = imaging.Enhancement{Brightness: 10, Contrast: 20}

func sweepAction(c *cli.Context) error {
	cfg, p, cleanup, err := setup(c, c.String(flagPreset))
	if err != nil {
		return err
	}
	defer cleanup()

	job, err := pipeline.NewJob(cfg)
	if err != nil {
		return err
	}
	scales := c.IntSlice(flagScales)
	variants := pipeline.ScaleVariants(scales, imaging.Enhancement{})
	if c.Bool(flagEnhanced) {
		enhance := cfg.Enhance
		if enhance.IsZero() {
			enhance = defaultEnhancement
		}
		variants = append(variants, pipeline.ScaleVariants(scales, enhance)...)
	}
	p.Cache = imaging.NewImageCache()
	runs, err := p.Sweep(c.Context, job, variants)
	if err != nil {
		return err
	}
	return report.RenderSweep(c.App.Writer, cfg.Input, runs, report.Options{Color: useColor()})
}

func dumpAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return errors.Errorf("config dump requires a preset name (%s)", strings.Join(config.Presets(), ", "))
	}
	cfg, err := config.Preset(name)
	if err != nil {
		return err
	}
	if out := c.String(flagOut); out != "" {
		if err := config.Save(out, cfg); err != nil {
			return err
		}
		report.Status(c.App.Writer, useColor(), report.StatusOK, "Config saved: "+out)
		return nil
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}
