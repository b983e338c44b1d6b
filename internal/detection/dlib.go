//go:build dlib

package detection

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"

	face "github.com/Kagami/go-face"
)

const dlibCompiled = true

type dlibDetector struct {
	mu       sync.Mutex
	category Category
	rec      *face.Recognizer
}

func openDlib(cat Category, p DlibParams) (Detector, error) {
	rec, err := face.NewRecognizer(p.ModelDir)
	if err != nil {
		return nil, modelError(MethodDlib, p.ModelDir, err)
	}
	return &dlibDetector{category: cat, rec: rec}, nil
}

func (d *dlibDetector) Method() string { return MethodDlib }

// Detect re-encodes the frame as JPEG, the only input the recognizer accepts.
func (d *dlibDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Color, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	d.mu.Lock()
	faces, err := d.rec.Recognize(buf.Bytes())
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib detection failed: %w", err)
	}

	out := make([]Detection, 0, len(faces))
	for _, f := range faces {
		if box, ok := clip(f.Rectangle, frame.Bounds()); ok {
			out = append(out, Detection{Category: d.category, Box: box})
		}
	}
	return out, nil
}

func (d *dlibDetector) Close() error {
	d.rec.Close()
	return nil
}
