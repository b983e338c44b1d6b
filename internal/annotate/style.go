package annotate

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/vision-lab/internal/detection"
)

// Named colors used by the exercise presets.
var (
	Green = color.RGBA{0, 255, 0, 255}
	Blue  = color.RGBA{0, 0, 255, 255}
	Red   = color.RGBA{255, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
)

// Style controls how one category's boxes are drawn.
type Style struct {
	Color     color.Color
	Thickness float64

	// Label is drawn above each box. Empty uses the category title.
	Label string

	// ShowConfidence appends the score to labels of scored detections.
	ShowConfidence bool
}

// DefaultStyle returns the category colors of the capstone: persons green,
// cars blue, faces green.
func DefaultStyle(cat detection.Category) Style {
	s := Style{Color: Green, Thickness: 2, Label: cat.Title(), ShowConfidence: true}
	if cat == detection.CategoryCar {
		s.Color = Blue
	}
	return s
}

func (s Style) withDefaults(cat detection.Category) Style {
	if s.Color == nil {
		s.Color = DefaultStyle(cat).Color
	}
	if s.Thickness <= 0 {
		s.Thickness = 2
	}
	if s.Label == "" {
		s.Label = cat.Title()
	}
	return s
}

// ParseColor parses "#RRGGBB" (or "RRGGBB") and a few names into an opaque color.
func ParseColor(s string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green":
		return Green, nil
	case "blue":
		return Blue, nil
	case "red":
		return Red, nil
	case "white":
		return White, nil
	}

	hex := strings.TrimSpace(s)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 7 {
		return nil, fmt.Errorf("invalid color %q: expected #RRGGBB", s)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

// HexColor formats c as "#RRGGBB".
func HexColor(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return strings.ToUpper(cf.Hex())
}
