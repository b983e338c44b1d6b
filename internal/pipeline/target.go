package pipeline

import (
	"fmt"

	"github.com/ironsheep/vision-lab/internal/annotate"
	"github.com/ironsheep/vision-lab/internal/config"
	"github.com/ironsheep/vision-lab/internal/detection"
)

// Target is one category to detect: its detector variants in preference
// order, the filter applied to their output, and the drawing style.
type Target struct {
	Category  detection.Category
	Factories []detection.Factory
	Filter    detection.Postprocessor
	Style     annotate.Style
}

// Methods lists the factory method names in preference order.
func (t Target) Methods() []string {
	out := make([]string, len(t.Factories))
	for i, f := range t.Factories {
		out[i] = f.Method
	}
	return out
}

// BuildTargets turns the configured targets into runnable ones. No model is
// opened here; factories only run when a session opens.
func BuildTargets(cfg *config.Config) ([]Target, error) {
	targets := make([]Target, 0, len(cfg.Targets))
	for i, tc := range cfg.Targets {
		t, err := buildTarget(tc)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func buildTarget(tc config.Target) (Target, error) {
	cat, err := detection.ParseCategory(tc.Category)
	if err != nil {
		return Target{}, err
	}

	style := annotate.DefaultStyle(cat)
	if tc.Color != "" {
		c, err := annotate.ParseColor(tc.Color)
		if err != nil {
			return Target{}, err
		}
		style.Color = c
	}
	if tc.Thickness > 0 {
		style.Thickness = tc.Thickness
	}
	if tc.Label != "" {
		style.Label = tc.Label
	}

	t := Target{Category: cat, Style: style}
	for _, dc := range tc.Detectors {
		f, err := Factory(cat, dc)
		if err != nil {
			return Target{}, err
		}
		t.Factories = append(t.Factories, f)
	}

	var filters []detection.Postprocessor
	if tc.MinConfidence > 0 {
		filters = append(filters, detection.NewScoreFilter(tc.MinConfidence))
	}
	if tc.MinArea > 0 {
		filters = append(filters, detection.NewAreaFilter(tc.MinArea))
	}
	t.Filter = detection.ChainFilters(filters...)
	return t, nil
}

// Factory binds one configured detector to cat.
func Factory(cat detection.Category, dc config.Detector) (detection.Factory, error) {
	switch dc.Method {
	case config.MethodHaar:
		p := deref(dc.Cascade)
		return detection.Factory{Method: detection.MethodHaar, Open: func() (detection.Detector, error) {
			return detection.NewCascade(cat, p)
		}}, nil
	case config.MethodHOG:
		p := deref(dc.HOG)
		return detection.Factory{Method: detection.MethodHOG, Open: func() (detection.Detector, error) {
			return detection.NewHOG(cat, p)
		}}, nil
	case config.MethodDNN:
		p := deref(dc.DNN)
		return detection.Factory{Method: detection.MethodDNN, Open: func() (detection.Detector, error) {
			return detection.NewDNN(cat, p)
		}}, nil
	case config.MethodDlib:
		p := deref(dc.Dlib)
		return detection.Factory{Method: detection.MethodDlib, Open: func() (detection.Detector, error) {
			return detection.NewDlib(cat, p)
		}}, nil
	case config.MethodONNX:
		p := deref(dc.ONNX)
		return detection.Factory{Method: detection.MethodONNX, Open: func() (detection.Detector, error) {
			return detection.NewONNX(cat, p)
		}}, nil
	}
	return detection.Factory{}, fmt.Errorf("unknown method %q", dc.Method)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
