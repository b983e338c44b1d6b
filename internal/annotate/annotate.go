package annotate

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ironsheep/vision-lab/internal/detection"
)

var regular *truetype.Font

func init() {
	var err error
	regular, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// DefaultFontSize matches the size of OpenCV's Hershey simplex font at scale 0.7.
const DefaultFontSize = 18

// Group is one category's detections and the style to draw them with.
type Group struct {
	Category   detection.Category
	Detections []detection.Detection
	Style      Style
}

// Overlay holds the optional text drawn over the whole frame.
type Overlay struct {
	// Header lines are drawn from (10,30) downward, 30 pixels apart.
	Header      []string
	HeaderColor color.Color

	// Timestamp is drawn in the bottom-right corner unless zero.
	Timestamp time.Time

	// Legend draws one color swatch per group in the bottom-left corner.
	Legend bool

	FontSize float64
}

// Result is the annotated copy and the number of rectangles drawn on it.
type Result struct {
	Image       image.Image
	Boxes       int
	PerCategory map[detection.Category]int
}

// Annotate draws every detection of every group onto a copy of img. The
// input image is never modified. Exactly one rectangle is drawn per detection.
func Annotate(img image.Image, groups []Group, overlay Overlay) *Result {
	dc := gg.NewContextForImage(img)
	size := overlay.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	labelFace := truetype.NewFace(regular, &truetype.Options{Size: size * 0.8})
	textFace := truetype.NewFace(regular, &truetype.Options{Size: size})

	res := &Result{PerCategory: make(map[detection.Category]int)}
	for _, g := range groups {
		style := g.Style.withDefaults(g.Category)
		dc.SetFontFace(labelFace)
		for _, d := range g.Detections {
			drawBox(dc, d.Box, style.Color, style.Thickness)
			drawLabel(dc, d, style)
			res.Boxes++
			res.PerCategory[g.Category]++
		}
	}

	dc.SetFontFace(textFace)
	if len(overlay.Header) > 0 {
		c := overlay.HeaderColor
		if c == nil {
			c = Green
		}
		for i, line := range overlay.Header {
			drawText(dc, line, 10, float64(30+30*i), c)
		}
	}
	if !overlay.Timestamp.IsZero() {
		ts := overlay.Timestamp.Format("2006-01-02 15:04:05")
		w, _ := dc.MeasureString(ts)
		drawText(dc, ts, float64(dc.Width())-w-10, float64(dc.Height())-10, White)
	}
	if overlay.Legend && len(groups) > 0 {
		drawLegend(dc, groups, size)
	}

	res.Image = dc.Image()
	return res
}

// drawBox strokes the rectangle outline.
func drawBox(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// drawLabel places the label just above the box, or just inside its top edge
// when the box touches the top of the frame.
func drawLabel(dc *gg.Context, d detection.Detection, s Style) {
	text := s.Label
	if s.ShowConfidence && d.Scored {
		text = fmt.Sprintf("%s %.2f", text, d.Confidence)
	}
	_, h := dc.MeasureString(text)
	x := float64(d.Box.Min.X)
	y := float64(d.Box.Min.Y) - 5
	if y-h < 0 {
		y = float64(d.Box.Min.Y) + h + 5
	}
	dc.SetColor(s.Color)
	dc.DrawString(text, x, y)
}

func drawText(dc *gg.Context, text string, x, y float64, c color.Color) {
	// A one pixel dark shadow keeps text legible on bright frames.
	dc.SetColor(color.RGBA{0, 0, 0, 160})
	dc.DrawString(text, x+1, y+1)
	dc.SetColor(c)
	dc.DrawString(text, x, y)
}

func drawLegend(dc *gg.Context, groups []Group, size float64) {
	swatch := size * 0.8
	y := float64(dc.Height()) - 10 - float64(len(groups)-1)*(swatch+6)
	for _, g := range groups {
		style := g.Style.withDefaults(g.Category)
		dc.SetColor(style.Color)
		dc.DrawRectangle(10, y-swatch, swatch, swatch)
		dc.Fill()
		drawText(dc, fmt.Sprintf("%s (%d)", style.Label, len(g.Detections)), 10+swatch+6, y, White)
		y += swatch + 6
	}
}
