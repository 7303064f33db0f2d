package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// maxFetchBytes caps how much image data a URL fetch will read.
const maxFetchBytes = 32 << 20

// Decode parses encoded image bytes (PNG, JPEG, GIF, BMP, TIFF) into a Raster.
func Decode(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// Load reads and decodes an image file.
func Load(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return FromImage(img), nil
}

// Fetch downloads an image over HTTP and decodes it. It performs exactly one
// GET with no retries; callers that need retry policy own it themselves.
func Fetch(ctx context.Context, url string) (*Raster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return Decode(data)
}

// Cache provides thread-safe caching of loaded rasters to avoid redundant
// disk reads when the same file is solved repeatedly.
//
// Rasters are immutable, so handing the same instance to concurrent callers
// is safe. Entries stay cached until Evict or Clear is called.
type Cache struct {
	mu      sync.RWMutex
	rasters map[string]*Raster
}

// NewCache creates an empty raster cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{rasters: make(map[string]*Raster)}
}

// Load returns the cached raster for path, reading and decoding the file on
// first use.
func (c *Cache) Load(path string) (*Raster, error) {
	c.mu.RLock()
	if r, ok := c.rasters[path]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[path] = r
	c.mu.Unlock()
	return r, nil
}

// Clear removes all cached rasters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[string]*Raster)
	c.mu.Unlock()
}

// Evict removes one cached raster by its path. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.rasters, path)
	c.mu.Unlock()
}
