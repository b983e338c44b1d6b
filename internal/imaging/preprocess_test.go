package imaging

import (
	"image"
	"image/color"
	"testing"
)

func solid(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		bound     int
		wantSize  image.Point
		wantScale float64
	}{
		{"landscape 1920x1080", 1920, 1080, 800, image.Pt(800, 450), 800.0 / 1920.0},
		{"portrait", 600, 1200, 800, image.Pt(400, 800), 800.0 / 1200.0},
		{"already small", 640, 480, 800, image.Pt(640, 480), 1},
		{"exactly bound", 800, 300, 800, image.Pt(800, 300), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, scale := FitWithin(solid(tt.w, tt.h, color.White), tt.bound)
			if got := out.Bounds().Size(); got != tt.wantSize {
				t.Errorf("size = %v, want %v", got, tt.wantSize)
			}
			if scale != tt.wantScale {
				t.Errorf("scale = %v, want %v", scale, tt.wantScale)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	src := solid(1920, 1080, color.RGBA{200, 100, 50, 255})
	before := src.RGBAAt(10, 10)

	p := Prepare(src, PrepareOptions{})

	if got := p.Size(); got.X > DefaultMaxDimension || got.Y > DefaultMaxDimension {
		t.Errorf("prepared size %v exceeds %d", got, DefaultMaxDimension)
	}
	if p.Gray.Bounds() != p.Color.Bounds() {
		t.Errorf("gray bounds %v differ from color bounds %v", p.Gray.Bounds(), p.Color.Bounds())
	}
	if p.Original != image.Pt(1920, 1080) {
		t.Errorf("original = %v", p.Original)
	}
	if src.RGBAAt(10, 10) != before || src.Bounds().Dx() != 1920 {
		t.Error("Prepare modified its input")
	}
}

func TestPrepare_DisplayIsUnenhanced(t *testing.T) {
	src := solid(1600, 900, color.RGBA{100, 100, 100, 255})

	p := Prepare(src, PrepareOptions{Enhance: Enhancement{Brightness: 30}})
	if p.Display.Bounds() != p.Color.Bounds() {
		t.Fatalf("display bounds %v differ from color bounds %v", p.Display.Bounds(), p.Color.Bounds())
	}
	shown, _, _, _ := p.Display.At(400, 200).RGBA()
	seen, _, _, _ := p.Color.At(400, 200).RGBA()
	if shown>>8 != 100 {
		t.Errorf("display pixel = %d, want the input value 100", shown>>8)
	}
	if seen>>8 <= 100 {
		t.Errorf("detector pixel = %d, want brightened above 100", seen>>8)
	}

	plain := Prepare(src, PrepareOptions{})
	if plain.Display != plain.Color {
		t.Error("without enhancement Display should be the Color frame")
	}
}

func TestPrepare_Deterministic(t *testing.T) {
	src := solid(1000, 500, color.RGBA{10, 200, 30, 255})
	a := Prepare(src, PrepareOptions{MaxDimension: 400})
	b := Prepare(src, PrepareOptions{MaxDimension: 400})
	if string(a.Gray.Pix) != string(b.Gray.Pix) {
		t.Error("two runs produced different grayscale pixels")
	}
}

func TestGrayscale(t *testing.T) {
	g := Grayscale(solid(4, 4, color.RGBA{255, 255, 255, 255}))
	if v := g.GrayAt(1, 1).Y; v < 254 {
		t.Errorf("white converted to %d, want ~255", v)
	}
	g = Grayscale(solid(4, 4, color.RGBA{0, 0, 0, 255}))
	if v := g.GrayAt(1, 1).Y; v != 0 {
		t.Errorf("black converted to %d, want 0", v)
	}
}

func TestGrayscale_WeightsAndBounds(t *testing.T) {
	src := solid(6, 3, color.RGBA{255, 0, 0, 255})
	g := Grayscale(src)
	if g.Bounds() != src.Bounds() {
		t.Fatalf("gray bounds %v, want %v", g.Bounds(), src.Bounds())
	}
	// 0.299 * 255
	if v := g.GrayAt(5, 2).Y; v < 75 || v > 77 {
		t.Errorf("red converted to %d, want ~76", v)
	}

	p := Prepare(solid(1600, 900, color.RGBA{0, 255, 0, 255}), PrepareOptions{})
	if p.Gray.Bounds() != p.Color.Bounds() {
		t.Errorf("gray bounds %v differ from color bounds %v", p.Gray.Bounds(), p.Color.Bounds())
	}
	if v := p.Gray.GrayAt(400, 200).Y; v < 148 || v > 151 {
		t.Errorf("green converted to %d, want ~150", v)
	}
}

func TestEnhance(t *testing.T) {
	src := solid(8, 8, color.RGBA{100, 100, 100, 255})
	brighter := Enhance(src, Enhancement{Brightness: 20})
	r, _, _, _ := brighter.At(2, 2).RGBA()
	if r>>8 <= 100 {
		t.Errorf("brightness +20 gave r=%d, want > 100", r>>8)
	}
	if (Enhancement{}).IsZero() != true {
		t.Error("zero enhancement should report IsZero")
	}
}
