package recognize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

// minOCRHeight is the glyph height tesseract needs for a usable read.
// Shorter images are upscaled by an integer factor before recognition.
const minOCRHeight = 32

// Tesseract reads text through the system tesseract library. Every call
// builds its own gosseract client, which makes the engine safe for
// concurrent attempts at the cost of per-call setup.
type Tesseract struct {
	// TessdataPrefix overrides the trained-data directory when non-empty.
	TessdataPrefix string
}

// ocrImage converts r for recognition, upscaling images below minOCRHeight
// with a Lanczos filter.
func ocrImage(r *raster.Raster) image.Image {
	img := r.ToImage()
	h := r.Height()
	if h == 0 || h >= minOCRHeight {
		return img
	}
	scale := (minOCRHeight + h - 1) / h
	return imaging.Resize(img, r.Width()*scale, h*scale, imaging.Lanczos)
}

// engineModeValue maps an engine mode name to the tesseract oem value.
// The default mode leaves the choice to the engine.
func engineModeValue(mode string) (string, bool) {
	switch mode {
	case ModeLegacy:
		return "0", true
	case ModeLSTM:
		return "1", true
	case ModeCombined:
		return "2", true
	default:
		return "", false
	}
}

// Recognize encodes r as an in-memory PNG and runs one tesseract pass over
// it with the recognizer's settings. Setup and engine failures come back
// wrapped in ErrEngineUnavailable; the confidence is the mean of the
// word-level confidences tesseract reports.
func (t *Tesseract) Recognize(r *raster.Raster, cfg Config) (Result, error) {
	cfg = cfg.Normalized()

	var buf bytes.Buffer
	if err := png.Encode(&buf, ocrImage(r)); err != nil {
		return Result{}, fmt.Errorf("failed to encode raster: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return Result{}, fmt.Errorf("%w: failed to set tessdata path: %v", ErrEngineUnavailable, err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		return Result{}, fmt.Errorf("%w: failed to set language: %v", ErrEngineUnavailable, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("%w: failed to set image: %v", ErrEngineUnavailable, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
		return Result{}, fmt.Errorf("%w: failed to set page segmentation mode: %v", ErrEngineUnavailable, err)
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			return Result{}, fmt.Errorf("%w: failed to set whitelist: %v", ErrEngineUnavailable, err)
		}
		// Disable dictionary correction for whitelisted reads.
		if err := client.SetVariable("load_system_dawg", "F"); err != nil {
			return Result{}, fmt.Errorf("%w: failed to disable dictionary: %v", ErrEngineUnavailable, err)
		}
		if err := client.SetVariable("load_freq_dawg", "F"); err != nil {
			return Result{}, fmt.Errorf("%w: failed to disable dictionary: %v", ErrEngineUnavailable, err)
		}
	}
	if v, ok := engineModeValue(cfg.EngineMode); ok {
		if err := client.SetVariable("tessedit_ocr_engine_mode", v); err != nil {
			return Result{}, fmt.Errorf("%w: failed to set engine mode: %v", ErrEngineUnavailable, err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	conf := 0.0
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		sum := 0.0
		for _, b := range boxes {
			sum += b.Confidence
		}
		conf = sum / float64(len(boxes))
	}
	return Result{Text: text, Confidence: conf}, nil
}
