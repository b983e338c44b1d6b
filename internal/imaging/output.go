package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when Save is given a non-positive quality.
const DefaultJPEGQuality = 90

// Save writes img to path, choosing the encoder from the extension, and returns
// the number of bytes written. Missing parent directories are created.
func Save(img image.Image, path string, quality int) (int64, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return 0, fmt.Errorf("failed to save image: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat output: %w", err)
	}
	return stat.Size(), nil
}

// DerivedName builds "<dir>/<stem>_<suffix>.jpg" for input, the naming used for
// batch outputs. An empty dir keeps the input's directory.
func DerivedName(input, dir, suffix string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if suffix == "" {
		return filepath.Join(dir, stem+".jpg")
	}
	return filepath.Join(dir, stem+"_"+suffix+".jpg")
}

// SideBySide pastes images left to right on a white canvas, each scaled to the
// height of the tallest one, separated by gap pixels.
func SideBySide(gap int, images ...image.Image) (image.Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to compose")
	}
	if gap < 0 {
		gap = 0
	}

	height := 0
	for _, img := range images {
		if h := img.Bounds().Dy(); h > height {
			height = h
		}
	}

	scaled := make([]image.Image, len(images))
	width := gap * (len(images) - 1)
	for i, img := range images {
		if img.Bounds().Dy() != height {
			img = imaging.Resize(img, 0, height, imaging.Lanczos)
		}
		scaled[i] = img
		width += img.Bounds().Dx()
	}

	canvas := imaging.New(width, height, color.White)
	x := 0
	for _, img := range scaled {
		canvas = imaging.Paste(canvas, img, image.Pt(x, 0))
		x += img.Bounds().Dx() + gap
	}
	return canvas, nil
}
