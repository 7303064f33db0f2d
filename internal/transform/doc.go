// Package transform implements the pixel operations the preprocessing
// pipeline is composed of.
//
// Every operation is a pure function from an input raster (plus parameters)
// to a freshly allocated output raster. Inputs are never modified, partial
// results are never visible, and identical inputs always produce identical
// outputs, which makes pipelines deterministic and safe to run concurrently
// across images.
//
// # Operations
//
// The step names form a closed set:
//
//   - grayscale: channel reduction (average, luminosity, perceptual)
//   - denoise: gaussian, median, or bilateral smoothing
//   - threshold: binary, adaptive mean, or Otsu binarization
//   - morphology: erode, dilate, open, close
//   - enhance: contrast stretch, sharpen, histogram equalization
//   - deskew: dominant-angle estimation and counter-rotation
//   - segment: connected-component analysis (content crop in a pipeline,
//     ordered glyph extraction via Segment)
//
// # Parameters
//
// Steps are configured through the Step struct. Omitted or zero numeric
// parameters take the step's default; out-of-range values are rejected by
// Validate before any pixels are touched. Kernel and block sizes must be odd
// and at least 3.
//
// # Errors
//
// All failures are reported as *Error carrying the step name and a reason.
// When an operation runs inside a pipeline, the pipeline annotates the error
// with its id and the zero-based step index.
package transform
