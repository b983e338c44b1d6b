package detection

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Category is the kind of object a detector looks for.
type Category string

const (
	CategoryFace   Category = "face"
	CategoryPerson Category = "person"
	CategoryCar    Category = "car"
)

// ParseCategory accepts the category names used in configuration files.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryFace, CategoryPerson, CategoryCar:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q (want face, person or car)", s)
}

// Title returns the capitalized singular form, e.g. "Person".
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Plural returns the capitalized plural used in report headings, e.g. "Persons".
func (c Category) Plural() string {
	return c.Title() + "s"
}

// Detection is a single detected object in processed-frame coordinates.
// Detections are values and are never modified after a detector returns them.
type Detection struct {
	Category Category `json:"category"`

	// Box is the axis-aligned bounding box; Box.Min is the top-left corner.
	Box image.Rectangle `json:"box"`

	// Confidence is meaningful only when Scored is true. Haar and HOG detectors
	// produce unscored detections.
	Confidence float64 `json:"confidence,omitempty"`
	Scored     bool    `json:"scored"`
}

// Area returns the box area in pixels.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Frame is the preprocessed input handed to detectors. Color and Gray share the
// same bounds; detectors pick whichever representation their backend wants.
type Frame struct {
	Color image.Image
	Gray  *image.Gray
}

// Bounds returns the frame bounds.
func (f *Frame) Bounds() image.Rectangle {
	if f.Gray != nil {
		return f.Gray.Bounds()
	}
	return f.Color.Bounds()
}

// Detector is one detection method bound to its loaded model.
//
// Detect must not modify the frame. Implementations serialize concurrent Detect
// calls themselves, so a single Detector may be shared between batch workers.
type Detector interface {
	// Method is the human readable method name, e.g. "Haar Cascade".
	Method() string

	Detect(ctx context.Context, frame *Frame) ([]Detection, error)

	Close() error
}

// Method names reported by the built-in detectors.
const (
	MethodHaar = "Haar Cascade"
	MethodHOG  = "HOG"
	MethodDNN  = "DNN"
	MethodDlib = "dlib HOG"
	MethodONNX = "ONNX"
)

// clip constrains r to bounds, returning false when nothing remains.
func clip(r, bounds image.Rectangle) (image.Rectangle, bool) {
	r = r.Canon().Intersect(bounds)
	return r, !r.Empty()
}

func newDetections(cat Category, rects []image.Rectangle, bounds image.Rectangle) []Detection {
	out := make([]Detection, 0, len(rects))
	for _, r := range rects {
		if box, ok := clip(r, bounds); ok {
			out = append(out, Detection{Category: cat, Box: box})
		}
	}
	return out
}
