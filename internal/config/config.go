package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/vision-lab/internal/annotate"
	"github.com/ironsheep/vision-lab/internal/detection"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/monitor"
)

// Config describes one run: where to read and write, what to detect and with
// which methods, and what to sample and report.
type Config struct {
	Name string `yaml:"name"`

	Input        string              `yaml:"input"`
	Output       string              `yaml:"output"`
	MaxDimension int                 `yaml:"max_dimension"`
	JPEGQuality  int                 `yaml:"jpeg_quality"`
	Enhance      imaging.Enhancement `yaml:"enhance"`

	Targets []Target `yaml:"targets"`

	Overlay Overlay            `yaml:"overlay"`
	Monitor Monitor            `yaml:"monitor"`
	Alerts  monitor.Thresholds `yaml:"alerts"`
	Report  Report             `yaml:"report"`
	Log     Log                `yaml:"log"`
	Batch   Batch              `yaml:"batch"`
}

// Target is one object category with its drawing style and its ordered list
// of detector methods.
type Target struct {
	Category  string  `yaml:"category"`
	Label     string  `yaml:"label,omitempty"`
	Color     string  `yaml:"color"`
	Thickness float64 `yaml:"thickness"`

	// MinConfidence drops scored detections below it; 0 keeps everything.
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
	// MinArea drops boxes smaller than this many pixels; 0 keeps everything.
	MinArea int `yaml:"min_area,omitempty"`

	Detectors []Detector `yaml:"detectors"`
}

// Method names accepted in Detector.Method.
const (
	MethodHaar = "haar"
	MethodHOG  = "hog"
	MethodDNN  = "dnn"
	MethodDlib = "dlib"
	MethodONNX = "onnx"
)

// Detector selects a method and carries its parameters. Only the block that
// matches Method is read.
type Detector struct {
	Method  string                   `yaml:"method"`
	Cascade *detection.CascadeParams `yaml:"cascade,omitempty"`
	HOG     *detection.HOGParams     `yaml:"hog,omitempty"`
	DNN     *detection.DNNParams     `yaml:"dnn,omitempty"`
	Dlib    *detection.DlibParams    `yaml:"dlib,omitempty"`
	ONNX    *detection.ONNXParams    `yaml:"onnx,omitempty"`
}

// Overlay selects the text drawn over the whole frame.
type Overlay struct {
	Header    bool    `yaml:"header"`
	Timestamp bool    `yaml:"timestamp"`
	Legend    bool    `yaml:"legend"`
	FontSize  float64 `yaml:"font_size,omitempty"`
}

// Monitor configures resource sampling.
type Monitor struct {
	Enabled     bool          `yaml:"enabled"`
	CPUInterval time.Duration `yaml:"cpu_interval"`

	Tegrastats         bool          `yaml:"tegrastats"`
	TegrastatsCommand  string        `yaml:"tegrastats_command,omitempty"`
	TegrastatsArgs     []string      `yaml:"tegrastats_args,omitempty"`
	TegrastatsDuration time.Duration `yaml:"tegrastats_duration"`
}

// Report configures the printed and saved report.
type Report struct {
	Title   string `yaml:"title,omitempty"`
	File    string `yaml:"file,omitempty"`
	Details bool   `yaml:"details"`
}

// Log configures logging. An empty File logs to stderr only.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Batch configures folder runs.
type Batch struct {
	OutputDir string `yaml:"output_dir,omitempty"`
	Suffix    string `yaml:"suffix"`
	Workers   int    `yaml:"workers"`
}

// Load reads a YAML file over base. Keys missing from the file keep base's
// values; lists present in the file replace base's lists.
func Load(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, the format Load reads back.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy made by a YAML round trip; a nil receiver yields
// an empty config.
func (c *Config) Clone() *Config {
	out := &Config{}
	if c == nil {
		return out
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		// Config holds only YAML-encodable fields.
		panic(err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

// Validate checks that the config can drive a run.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("max_dimension must not be negative")
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 0 and 100")
	}
	if abs(c.Enhance.Brightness) >= 100 || abs(c.Enhance.Contrast) >= 100 {
		return fmt.Errorf("enhance values must be within (-100, 100)")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	seen := map[detection.Category]bool{}
	for i, t := range c.Targets {
		cat, err := detection.ParseCategory(t.Category)
		if err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		if seen[cat] {
			return fmt.Errorf("targets[%d]: duplicate category %s", i, cat)
		}
		seen[cat] = true
		if t.Color != "" {
			if _, err := annotate.ParseColor(t.Color); err != nil {
				return fmt.Errorf("targets[%d]: %w", i, err)
			}
		}
		if t.MinConfidence < 0 || t.MinConfidence > 1 {
			return fmt.Errorf("targets[%d]: min_confidence must be within [0, 1]", i)
		}
		if len(t.Detectors) == 0 {
			return fmt.Errorf("targets[%d]: at least one detector is required", i)
		}
		for j, d := range t.Detectors {
			if err := d.validate(); err != nil {
				return fmt.Errorf("targets[%d].detectors[%d]: %w", i, j, err)
			}
		}
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative")
	}
	return nil
}

func (d Detector) validate() error {
	switch d.Method {
	case MethodHaar:
		if d.Cascade == nil || d.Cascade.Model == "" {
			return fmt.Errorf("haar requires cascade.model")
		}
		if d.Cascade.ScaleFactor != 0 && d.Cascade.ScaleFactor <= 1 {
			return fmt.Errorf("cascade.scale_factor must be greater than 1")
		}
	case MethodHOG:
	case MethodDNN:
		if d.DNN == nil || d.DNN.Model == "" {
			return fmt.Errorf("dnn requires dnn.model")
		}
	case MethodDlib:
		if d.Dlib == nil || d.Dlib.ModelDir == "" {
			return fmt.Errorf("dlib requires dlib.model_dir")
		}
	case MethodONNX:
		if d.ONNX == nil || d.ONNX.Model == "" {
			return fmt.Errorf("onnx requires onnx.model")
		}
	default:
		return fmt.Errorf("unknown method %q (want haar, hog, dnn, dlib or onnx)", d.Method)
	}
	return nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
