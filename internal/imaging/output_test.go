package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.jpg")
	n, err := Save(solid(40, 30, color.White), path, 0)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if n <= 0 {
		t.Errorf("bytes = %d, want > 0", n)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(40, 30) {
		t.Errorf("reloaded size = %v", img.Bounds().Size())
	}
}

func TestDerivedName(t *testing.T) {
	tests := []struct {
		input, dir, suffix, want string
	}{
		{"photos/cat.png", "out", "detected", filepath.Join("out", "cat_detected.jpg")},
		{"photos/cat.png", "", "detected", filepath.Join("photos", "cat_detected.jpg")},
		{"dog.jpeg", "out", "", filepath.Join("out", "dog.jpg")},
	}
	for _, tt := range tests {
		if got := DerivedName(tt.input, tt.dir, tt.suffix); got != tt.want {
			t.Errorf("DerivedName(%q, %q, %q) = %q, want %q", tt.input, tt.dir, tt.suffix, got, tt.want)
		}
	}
}

func TestSideBySide(t *testing.T) {
	a := solid(100, 50, color.Black)
	b := solid(50, 100, color.Black)

	out, err := SideBySide(10, a, b)
	if err != nil {
		t.Fatalf("SideBySide failed: %v", err)
	}
	// a is scaled to 200x100, b stays 50x100.
	if got := out.Bounds().Size(); got != image.Pt(200+10+50, 100) {
		t.Errorf("size = %v, want 260x100", got)
	}

	if _, err := SideBySide(0); err == nil {
		t.Error("expected error for no images")
	}
}
