package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage creates a solid test image file and returns its path.
// The file lives in t.TempDir and is removed with it.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.CreateTemp(t.TempDir(), "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return f.Name()
}

func TestLoad(t *testing.T) {
	path := createTestImage(t, 100, 50, color.RGBA{255, 0, 0, 255})

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(100, 50) {
		t.Errorf("size = %v, want 100x50", got)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.jpg")
	if err := os.WriteFile(path, []byte("this is not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
	if errors.Is(err, ErrImageNotFound) {
		t.Error("decode failure must not match ErrImageNotFound")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 10, 10, color.White)

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("Len = %d, want 1", cache.Len())
	}

	// Remove the file; the second load must be served from memory.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached image instance")
	}

	cache.Evict(path)
	if _, err := cache.Load(path); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound after evict, got %v", err)
	}
}

func TestImageCache_FailedLoadNotCached(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("expected error")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 20, 20, color.Black)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", cache.Len())
	}
}

func TestInspect(t *testing.T) {
	path := createTestImage(t, 64, 32, color.White)
	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	info := Inspect(img, path)
	if info.Width != 64 || info.Height != 32 {
		t.Errorf("dimensions = %dx%d, want 64x32", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format = %q, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("file size = %d, want > 0", info.FileSizeBytes)
	}
}

func TestChannels(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"gray", image.NewGray(image.Rect(0, 0, 1, 1)), 1},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420), 3},
		{"rgba", image.NewRGBA(image.Rect(0, 0, 1, 1)), 4},
		{"paletted opaque", image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black, color.White}), 3},
		{"paletted transparent", image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Transparent}), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := channels(tt.img); got != tt.want {
				t.Errorf("channels() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsImageFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.jpg":  true,
		"b.JPEG": true,
		"c.png":  true,
		"d.txt":  false,
		"e":      false,
	} {
		if got := IsImageFile(path); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", path, got, want)
		}
	}
}
