package transform

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

func validateSegment(minArea int) error {
	if minArea < 1 {
		return failf(StepSegment, "min_area must be >= 1, got %d", minArea)
	}
	return nil
}

// Segment extracts candidate glyph regions from r as separate rasters,
// ordered left to right by each region's leftmost column. Foreground is
// whatever sits at or below the Otsu cut of the gray image; connected dark
// regions with fewer than minArea pixels are discarded as noise. A blank
// image yields an empty slice.
func Segment(r *raster.Raster, minArea int) ([]*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepSegment, "nil input raster")
	}
	if err := validateSegment(minArea); err != nil {
		return nil, err
	}
	boxes := glyphBoxes(grayOf(r), minArea)
	glyphs := make([]*raster.Raster, 0, len(boxes))
	for _, box := range boxes {
		glyphs = append(glyphs, matchDepth(r, imaging.Crop(r.ToImage(), box)))
	}
	return glyphs, nil
}

// CropToContent trims r to the union bounding box of its glyph regions,
// dropping empty margins. Images with no region of at least minArea pixels
// come back as an unchanged copy.
func CropToContent(r *raster.Raster, minArea int) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepSegment, "nil input raster")
	}
	if err := validateSegment(minArea); err != nil {
		return nil, err
	}
	boxes := glyphBoxes(grayOf(r), minArea)
	if len(boxes) == 0 {
		return r.Clone(), nil
	}
	union := boxes[0]
	for _, box := range boxes[1:] {
		union = union.Union(box)
	}
	return matchDepth(r, imaging.Crop(r.ToImage(), union)), nil
}

// glyphBoxes finds the bounding boxes of connected dark regions with at
// least minArea pixels, sorted by leftmost column, then top row.
func glyphBoxes(g *raster.Raster, minArea int) []image.Rectangle {
	w, h := g.Width(), g.Height()
	cut := otsuLevel(g)

	mask := make([][]bool, h)
	for y := range mask {
		mask[y] = make([]bool, w)
		for x := 0; x < w; x++ {
			// <= keeps already-binarized images working, where the Otsu
			// cut lands on the dark value itself.
			mask[y][x] = g.At(x, y, 0) <= cut
		}
	}

	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, w)
	}

	var boxes []image.Rectangle
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			box, area := fillRegion(mask, visited, x, y, w, h)
			if area >= minArea {
				boxes = append(boxes, box)
			}
		}
	}

	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].Min.X != boxes[j].Min.X {
			return boxes[i].Min.X < boxes[j].Min.X
		}
		return boxes[i].Min.Y < boxes[j].Min.Y
	})
	return boxes
}

// fillRegion flood-fills the 8-connected region containing (startX, startY)
// with an explicit stack, returning its bounding box and pixel count.
func fillRegion(mask, visited [][]bool, startX, startY, w, h int) (image.Rectangle, int) {
	stack := []image.Point{{X: startX, Y: startY}}
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	area := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		area++
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), area
}
