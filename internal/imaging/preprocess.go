package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// DefaultMaxDimension bounds the longer side of every processed frame.
const DefaultMaxDimension = 800

// Enhancement adjusts brightness and contrast before detection. Both values are
// percentages in the range (-100, 100); zero leaves the image untouched.
type Enhancement struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
}

// IsZero reports whether the enhancement is a no-op.
func (e Enhancement) IsZero() bool {
	return e.Brightness == 0 && e.Contrast == 0
}

// PrepareOptions controls Prepare.
type PrepareOptions struct {
	// MaxDimension bounds the longer side. Zero or negative selects DefaultMaxDimension.
	MaxDimension int

	Enhance Enhancement
}

// Prepared holds the preprocessed frame. Color, Gray and Display always have
// identical bounds, anchored at (0,0).
type Prepared struct {
	// Color and Gray are what the detectors see, enhancement included.
	Color image.Image
	Gray  *image.Gray

	// Display is the resized input without enhancement, the image annotations
	// are drawn on. It is Color itself when no enhancement was applied.
	Display image.Image

	// Original is the size of the decoded input.
	Original image.Point

	// Scale is processed size divided by original size, 1 when no resize happened.
	Scale float64
}

// Size returns the processed frame dimensions.
func (p *Prepared) Size() image.Point {
	return p.Color.Bounds().Size()
}

// Prepare produces the frames a detection run works on.
//
// Steps, in order: the optional brightness/contrast enhancement, a resize that
// bounds the longer side while keeping the aspect ratio (never enlarging), and
// a BT.601 grayscale conversion. The unenhanced input is resized as well and
// kept as Display for annotation.
//
// Parameters:
//   - img: The decoded input. It is never modified.
//   - opts: MaxDimension (0 selects DefaultMaxDimension) and Enhance.
//
// Returns:
//   - *Prepared: Color, Gray and Display at the same size anchored at (0,0),
//     the original size and the resize scale.
//
// The result depends only on img and opts.
func Prepare(img image.Image, opts PrepareOptions) *Prepared {
	bound := opts.MaxDimension
	if bound <= 0 {
		bound = DefaultMaxDimension
	}

	display, scale := FitWithin(img, bound)
	display = anchor(display)
	fitted := display
	if !opts.Enhance.IsZero() {
		fitted, _ = FitWithin(Enhance(img, opts.Enhance), bound)
		fitted = anchor(fitted)
	}

	return &Prepared{
		Color:    fitted,
		Gray:     Grayscale(fitted),
		Display:  display,
		Original: img.Bounds().Size(),
		Scale:    scale,
	}
}

// FitWithin resizes img so that neither side exceeds bound, keeping the aspect
// ratio. Images already within bound are returned as-is with scale 1.
func FitWithin(img image.Image, bound int) (image.Image, float64) {
	size := img.Bounds().Size()
	longest := size.X
	if size.Y > longest {
		longest = size.Y
	}
	if bound <= 0 || longest <= bound {
		return img, 1
	}

	scale := float64(bound) / float64(longest)
	if size.X >= size.Y {
		return imaging.Resize(img, bound, 0, imaging.Linear), scale
	}
	return imaging.Resize(img, 0, bound, imaging.Linear), scale
}

// Grayscale converts img to 8-bit luminance using the BT.601 weights OpenCV
// applies for BGR to gray conversion. The result has the bounds of img.
func Grayscale(img image.Image) *image.Gray {
	// bild writes the luminance into R, G and B alike; R is copied out.
	rgba := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	gray := image.NewGray(img.Bounds())
	size := rgba.Bounds().Size()
	for y := 0; y < size.Y; y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < size.X; x++ {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// Enhance returns a brightness/contrast adjusted copy of img.
func Enhance(img image.Image, e Enhancement) image.Image {
	out := image.Image(img)
	if e.Brightness != 0 {
		out = imaging.AdjustBrightness(out, e.Brightness)
	}
	if e.Contrast != 0 {
		out = imaging.AdjustContrast(out, e.Contrast)
	}
	return out
}

// anchor moves images with a non-zero origin to (0,0) so detector coordinates
// and drawing coordinates agree.
func anchor(img image.Image) image.Image {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return imaging.Clone(img)
}
