package transform

import (
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

// Skew detection parameters. The Hough probe covers normals 45..135 degrees,
// which corresponds to structure within 45 degrees of horizontal; captcha
// text is never rotated further than that.
const (
	edgeGradientMin = 30
	skewMinTheta    = 45
	skewMaxTheta    = 135
	skewMaxPeaks    = 12
)

func validateDeskew(tolerance float64) error {
	if tolerance < 0 || tolerance > 45 {
		return failf(StepDeskew, "tolerance must be in 0..45 degrees, got %g", tolerance)
	}
	return nil
}

// EstimateSkew returns the dominant angle of near-horizontal structure in r,
// in degrees, positive counter-clockwise. It votes edge pixels into a Hough
// accumulator, keeps the strongest local-maximum cells, and reports the
// median of their angles. Blank images and images without dominant linear
// structure report 0.
func EstimateSkew(r *raster.Raster) (float64, error) {
	if r == nil {
		return 0, failf(StepDeskew, "nil input raster")
	}
	g := grayOf(r)
	w, h := g.Width(), g.Height()
	edges := edgeMap(g)

	maxDist := int(math.Sqrt(float64(w*w + h*h)))
	numAngles := skewMaxTheta - skewMinTheta + 1
	acc := make([][]int, maxDist*2)
	for i := range acc {
		acc[i] = make([]int, numAngles)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !edges[y][x] {
				continue
			}
			for t := 0; t < numAngles; t++ {
				angle := float64(t+skewMinTheta) * math.Pi / 180
				rho := float64(x)*math.Cos(angle) + float64(y)*math.Sin(angle)
				idx := int(rho) + maxDist
				if idx >= 0 && idx < maxDist*2 {
					acc[idx][t]++
				}
			}
		}
	}

	minVotes := w / 4
	if minVotes < 20 {
		minVotes = 20
	}

	type peak struct {
		theta int
		votes int
	}
	var peaks []peak
	for idx := 0; idx < maxDist*2; idx++ {
		for t := 0; t < numAngles; t++ {
			votes := acc[idx][t]
			if votes < minVotes {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					ni, nt := idx+dr, t+dt
					if ni < 0 || ni >= maxDist*2 || nt < 0 || nt >= numAngles {
						continue
					}
					if acc[ni][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{theta: t + skewMinTheta, votes: votes})
			}
		}
	}
	if len(peaks) == 0 {
		return 0, nil
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].votes > peaks[j].votes })
	if len(peaks) > skewMaxPeaks {
		peaks = peaks[:skewMaxPeaks]
	}

	// A line whose Hough normal sits at theta runs at 90-theta degrees in
	// screen coordinates, which is the counter-clockwise visual angle.
	angles := make([]float64, len(peaks))
	for i, p := range peaks {
		angles[i] = 90 - float64(p.theta)
	}
	sort.Float64s(angles)
	mid := len(angles) / 2
	if len(angles)%2 == 0 {
		return (angles[mid-1] + angles[mid]) / 2, nil
	}
	return angles[mid], nil
}

// Deskew measures the dominant skew and, when it exceeds tolerance degrees,
// rotates the image back to horizontal. The canvas grows to fit the rotated
// content; revealed corners take the estimated border color so downstream
// thresholding sees a uniform background.
func Deskew(r *raster.Raster, tolerance float64) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepDeskew, "nil input raster")
	}
	if err := validateDeskew(tolerance); err != nil {
		return nil, err
	}
	angle, err := EstimateSkew(r)
	if err != nil {
		return nil, err
	}
	if math.Abs(angle) <= tolerance {
		return r.Clone(), nil
	}
	out := imaging.Rotate(r.ToImage(), -angle, borderColor(r))
	return matchDepth(r, out), nil
}

// edgeMap flags pixels whose right or down neighbor differs by more than the
// gradient threshold.
func edgeMap(g *raster.Raster) [][]bool {
	w, h := g.Width(), g.Height()
	edges := make([][]bool, h)
	for y := range edges {
		edges[y] = make([]bool, w)
	}
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			v := int(g.At(x, y, 0))
			gx := iabs(v - int(g.At(x+1, y, 0)))
			gy := iabs(v - int(g.At(x, y+1, 0)))
			if gx > edgeGradientMin || gy > edgeGradientMin {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// borderColor averages the one-pixel frame of r as a background estimate.
func borderColor(r *raster.Raster) color.Color {
	w, h := r.Width(), r.Height()
	var sum [3]int
	count := 0
	add := func(x, y int) {
		for c := 0; c < 3; c++ {
			ch := c
			if r.Gray() {
				ch = 0
			}
			sum[c] += int(r.At(x, y, ch))
		}
		count++
	}
	for x := 0; x < w; x++ {
		add(x, 0)
		if h > 1 {
			add(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		add(0, y)
		if w > 1 {
			add(w-1, y)
		}
	}
	if count == 0 {
		return color.White
	}
	return color.NRGBA{
		R: uint8(sum[0] / count),
		G: uint8(sum[1] / count),
		B: uint8(sum[2] / count),
		A: 255,
	}
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
