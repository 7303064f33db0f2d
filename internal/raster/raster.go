// Package raster defines the immutable bitmap value type that flows through
// the preprocessing pipeline, plus helpers for loading and decoding images
// into it.
//
// A Raster owns its pixel buffer exclusively. Constructors copy the data they
// are given and accessors never expose the internal buffer, so two pipeline
// stages can never alias the same pixels. Transforms consume one Raster and
// produce a new one.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// Channel depths supported by Raster.
const (
	DepthGray = 1 // single luminance channel
	DepthRGB  = 3 // interleaved R, G, B
)

// Raster is an in-memory bitmap with explicit dimensions and channel depth.
//
// The pixel buffer is stored row-major, interleaved by channel:
// pix[(y*width+x)*depth+c]. A Raster is immutable after construction; all
// mutating operations return a new instance.
type Raster struct {
	width  int
	height int
	depth  int
	pix    []uint8
}

// New builds a Raster from raw pixel data. The buffer is copied, so the
// caller keeps ownership of pix.
//
// Returns an error if the dimensions are not positive, the depth is not
// DepthGray or DepthRGB, or the buffer length does not match
// width*height*depth.
func New(width, height, depth int, pix []uint8) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster dimensions %dx%d", width, height)
	}
	if depth != DepthGray && depth != DepthRGB {
		return nil, fmt.Errorf("unsupported channel depth %d", depth)
	}
	if len(pix) != width*height*depth {
		return nil, fmt.Errorf("pixel buffer length %d does not match %dx%dx%d", len(pix), width, height, depth)
	}
	buf := make([]uint8, len(pix))
	copy(buf, pix)
	return &Raster{width: width, height: height, depth: depth, pix: buf}, nil
}

// FromImage converts a decoded image into a Raster.
//
// *image.Gray inputs produce a depth-1 Raster with the luminance values
// copied verbatim. Everything else is flattened to depth-3 RGB; alpha is
// discarded.
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		pix := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			off := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(pix[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		return &Raster{width: w, height: h, depth: DepthGray, pix: pix}
	}

	pix := make([]uint8, w*h*DepthRGB)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix[i] = uint8(r >> 8)
			pix[i+1] = uint8(g >> 8)
			pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return &Raster{width: w, height: h, depth: DepthRGB, pix: pix}
}

// GrayFromImage converts an image into a depth-1 Raster by taking the red
// channel. It is intended for images whose channels are known to be equal
// (the output of a channel-independent filter applied to a grayscale image),
// where this recovers the original luminance exactly.
func GrayFromImage(img image.Image) *Raster {
	if g, ok := img.(*image.Gray); ok {
		return FromImage(g)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]uint8, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			pix[i] = uint8(r >> 8)
			i++
		}
	}
	return &Raster{width: w, height: h, depth: DepthGray, pix: pix}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.height }

// Depth returns the number of channels per pixel.
func (r *Raster) Depth() int { return r.depth }

// Gray reports whether the raster has a single channel.
func (r *Raster) Gray() bool { return r.depth == DepthGray }

// Bounds returns the raster extent as an image.Rectangle anchored at (0,0).
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// At returns the value of channel c at pixel (x, y). No bounds checking is
// performed; callers must supply valid coordinates.
func (r *Raster) At(x, y, c int) uint8 {
	return r.pix[(y*r.width+x)*r.depth+c]
}

// Pix returns a copy of the pixel buffer.
func (r *Raster) Pix() []uint8 {
	buf := make([]uint8, len(r.pix))
	copy(buf, r.pix)
	return buf
}

// Clone returns an independent copy of the raster.
func (r *Raster) Clone() *Raster {
	return &Raster{width: r.width, height: r.height, depth: r.depth, pix: r.Pix()}
}

// Equal reports whether two rasters have identical dimensions, depth, and
// pixel values.
func (r *Raster) Equal(o *Raster) bool {
	if o == nil {
		return false
	}
	return r.width == o.width && r.height == o.height && r.depth == o.depth &&
		bytes.Equal(r.pix, o.pix)
}

// ToImage converts the raster into a standard library image. Depth-1 rasters
// become *image.Gray, depth-3 rasters become *image.NRGBA with full alpha.
func (r *Raster) ToImage() image.Image {
	if r.depth == DepthGray {
		g := image.NewGray(image.Rect(0, 0, r.width, r.height))
		copy(g.Pix, r.pix)
		return g
	}
	out := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	si, di := 0, 0
	for p := 0; p < r.width*r.height; p++ {
		out.Pix[di] = r.pix[si]
		out.Pix[di+1] = r.pix[si+1]
		out.Pix[di+2] = r.pix[si+2]
		out.Pix[di+3] = 0xFF
		si += 3
		di += 4
	}
	return out
}

// Luminance returns the grayscale value of pixel (x, y) using ITU-R BT.601
// weights for RGB rasters, or the stored value for grayscale rasters.
func (r *Raster) Luminance(x, y int) uint8 {
	if r.depth == DepthGray {
		return r.pix[y*r.width+x]
	}
	i := (y*r.width + x) * 3
	return uint8(0.299*float64(r.pix[i]) + 0.587*float64(r.pix[i+1]) + 0.114*float64(r.pix[i+2]))
}

// Must returns r, panicking when err is non-nil. It wraps New at call sites
// whose dimensions are derived from an existing raster and cannot be invalid.
func Must(r *Raster, err error) *Raster {
	if err != nil {
		panic(err)
	}
	return r
}

// Fill builds a uniformly colored raster, mostly useful in tests.
func Fill(width, height, depth int, c color.Color) (*Raster, error) {
	if depth == DepthGray {
		v := color.GrayModel.Convert(c).(color.Gray).Y
		pix := make([]uint8, width*height)
		for i := range pix {
			pix[i] = v
		}
		return New(width, height, depth, pix)
	}
	cr, cg, cb, _ := c.RGBA()
	pix := make([]uint8, width*height*DepthRGB)
	for i := 0; i < len(pix); i += 3 {
		pix[i] = uint8(cr >> 8)
		pix[i+1] = uint8(cg >> 8)
		pix[i+2] = uint8(cb >> 8)
	}
	return New(width, height, depth, pix)
}
