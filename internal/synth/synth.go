// Package synth renders deterministic synthetic captchas for tests and the
// CLI self-test. Given the same inputs it always produces the same pixels,
// which the pipeline determinism tests rely on.
package synth

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

// Captcha draws text in black over a white background, then degrades it with
// seeded noise: a few gray strike-through lines and scattered speckle dots.
// The same (text, width, height, seed) tuple always yields identical output.
func Captcha(text string, width, height int, seed int64) *raster.Raster {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	rng := rand.New(rand.NewSource(seed))

	// Noise lines first so the glyphs stay on top.
	for i := 0; i < 3; i++ {
		gray := uint8(100 + rng.Intn(100))
		drawLine(img,
			rng.Intn(width), rng.Intn(height),
			rng.Intn(width), rng.Intn(height),
			color.NRGBA{R: gray, G: gray, B: gray, A: 255})
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	x := (width - textWidth) / 2
	if x < 2 {
		x = 2
	}
	y := height/2 + face.Metrics().Ascent.Ceil()/2

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)

	// Speckle noise over everything.
	for i := 0; i < width*height/50; i++ {
		px := rng.Intn(width)
		py := rng.Intn(height)
		gray := uint8(rng.Intn(256))
		img.SetNRGBA(px, py, color.NRGBA{R: gray, G: gray, B: gray, A: 255})
	}

	return raster.FromImage(img)
}

// Clean draws text on a white background with no noise at all. Useful when a
// test needs glyph components without speckle interference.
func Clean(text string, width, height int) *raster.Raster {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	x := (width - textWidth) / 2
	if x < 2 {
		x = 2
	}
	y := height/2 + face.Metrics().Ascent.Ceil()/2

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)

	return raster.FromImage(img)
}

// Ruled draws a single thick black line through the image center at the given
// angle (degrees, counter-clockwise from horizontal) on a white background.
// Deskew tests use it as a known-orientation input.
func Ruled(width, height int, angleDeg float64) *raster.Raster {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	rad := angleDeg * math.Pi / 180
	cx, cy := float64(width)/2, float64(height)/2
	half := float64(width) * 0.4
	// Screen y grows downward, so a counter-clockwise angle subtracts.
	x0 := int(cx - half*math.Cos(rad))
	y0 := int(cy + half*math.Sin(rad))
	x1 := int(cx + half*math.Cos(rad))
	y1 := int(cy - half*math.Sin(rad))

	for dy := -1; dy <= 1; dy++ {
		drawLine(img, x0, y0+dy, x1, y1+dy, color.NRGBA{A: 255})
	}

	return raster.FromImage(img)
}

// drawLine rasterizes a line segment with the integer Bresenham walk.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetNRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
