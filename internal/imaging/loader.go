package imaging

import (
	"errors"
	"fmt"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrDecode is returned when an input image is missing or malformed.
var ErrDecode = errors.New("decode error")

// Decode reads an image from r and converts it to a luminance Grid.
//
// Returns an error wrapping ErrDecode if the stream is not a supported
// PNG, JPEG or GIF image.
func Decode(r io.Reader) (*Grid, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w: %w", ErrDecode, err)
	}
	return GridFromImage(imaging.Grayscale(img)), nil
}

// DecodeFile opens path and decodes it as a luminance Grid, optionally cropped
// to roi. A nil roi keeps the whole image.
//
// Any failure to open or decode the file wraps ErrDecode.
func DecodeFile(path string, roi *Region) (*Grid, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w: %w", path, ErrDecode, err)
	}
	if roi != nil {
		img, err = Crop(img, *roi)
		if err != nil {
			return nil, err
		}
	}
	return GridFromImage(imaging.Grayscale(img)), nil
}

// ImageCache provides thread-safe caching of decoded grids to avoid redundant
// disk reads and decoding.
//
// Grids are keyed by their file path. Callers must treat cached grids as
// read-only; every pipeline stage produces fresh grids, so sharing is safe.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	grid, err := cache.Load("/path/to/hallway.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/hallway.jpg") // Optional: free memory
type ImageCache struct {
	mu    sync.RWMutex
	grids map[string]*Grid
}

// NewImageCache creates and initializes a new empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		grids: make(map[string]*Grid),
	}
}

// Load retrieves a grid from the cache or decodes it from disk if not cached.
//
// The path string is used verbatim as the key; relative and absolute paths
// to the same file occupy separate entries.
func (c *ImageCache) Load(path string) (*Grid, error) {
	c.mu.RLock()
	if g, ok := c.grids[path]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	g, err := DecodeFile(path, nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.grids[path] = g
	c.mu.Unlock()

	return g, nil
}

// Clear removes all grids from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.grids = make(map[string]*Grid)
	c.mu.Unlock()
}

// Evict removes a specific grid from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.grids, path)
	c.mu.Unlock()
}

// Len returns the number of cached grids.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.grids)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif" or "unknown", taken from the extension.
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// MeanIntensity is the average luminance of the decoded grid (0-255).
	MeanIntensity float64 `json:"mean_intensity"`
}

// LoadImageInfo loads an image through the cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	g, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	var sum float64
	for _, v := range g.Pix {
		sum += v
	}
	mean := 0.0
	if len(g.Pix) > 0 {
		mean = sum / float64(len(g.Pix))
	}

	return &ImageInfo{
		Width:         g.Width,
		Height:        g.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
		MeanIntensity: mean,
	}, nil
}
