package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrImageNotFound is returned when the input path does not exist or cannot be opened.
	ErrImageNotFound = errors.New("image not found")

	// ErrImageDecode is returned when the file exists but holds no decodable pixels.
	ErrImageDecode = errors.New("image could not be decoded")
)

// Load reads and decodes a single image from disk. Nothing is cached; use
// ImageCache for repeated reads of the same path.
//
// Parameters:
//   - path: Absolute or relative file path. Supported formats are PNG, JPEG
//     and GIF.
//
// Returns:
//   - image.Image: The decoded image in the decoder's native color model
//     (e.g., *image.YCbCr for JPEG, *image.NRGBA for PNG).
//   - error: Non-nil if the file cannot be opened or decoded.
//
// # Errors
//
// A missing or unreadable file yields an error matching ErrImageNotFound. A file
// that is not a PNG, JPEG or GIF, or that decodes to zero pixels, yields an error
// matching ErrImageDecode. Both are matched with errors.Is.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to open image: %v", ErrImageNotFound, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrImageDecode, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrImageDecode, path)
	}
	return img, nil
}

// ImageCache keeps decoded images keyed by path so repeated passes over the same
// input (method comparison, rescaling) read the file only once.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("street_scene.jpg")
//	if err != nil {
//	    return err
//	}
//	cache.Evict("street_scene.jpg") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) result in separate cache entries.
// Failed loads are not cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Info describes a loaded image the way the pipeline reports it.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width" yaml:"width"`

	// Height is the image height in pixels.
	Height int `json:"height" yaml:"height"`

	// Channels is 1 for grayscale, 3 for color without alpha, 4 with alpha.
	Channels int `json:"channels" yaml:"channels"`

	// Format is "png", "jpeg", "gif" or "unknown", taken from the file extension.
	Format string `json:"format" yaml:"format"`

	// FileSizeBytes is the size of the file on disk, 0 if it could not be stat'd.
	FileSizeBytes int64 `json:"file_size_bytes" yaml:"file_size_bytes"`
}

// Inspect returns the dimensions, channel count and format of img, which was
// loaded from path.
//
// Channel count follows the Go color model:
//   - *image.Gray, *image.Gray16 -> 1
//   - *image.YCbCr, *image.CMYK, paletted without transparency -> 3
//   - *image.RGBA, *image.NRGBA and their 64-bit variants -> 4
func Inspect(img image.Image, path string) Info {
	bounds := img.Bounds()
	info := Info{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: channels(img),
		Format:   formatFromExt(path),
	}
	if stat, err := os.Stat(path); err == nil {
		info.FileSizeBytes = stat.Size()
	}
	return info
}

func channels(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		return 4
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	default:
		return 3
	}
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	}
	return "unknown"
}

// IsImageFile reports whether path has an extension the loader can decode.
func IsImageFile(path string) bool {
	return formatFromExt(path) != "unknown"
}
