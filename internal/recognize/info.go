package recognize

import (
	"bytes"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Info describes the locally available OCR backend.
type Info struct {
	Available bool     `json:"available"`
	Version   string   `json:"version"`
	Languages []string `json:"languages,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Probe checks whether tesseract can actually recognize something by running
// a smoke pass over a tiny blank image. A failed probe is not an error; the
// returned Info carries the failure text instead.
func Probe() Info {
	client := gosseract.NewClient()
	defer client.Close()

	info := Info{Version: client.Version()}
	if langs, err := gosseract.GetAvailableLanguages(); err == nil {
		info.Languages = langs
	}

	blank := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		info.Error = err.Error()
		return info
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		info.Error = err.Error()
		return info
	}
	if _, err := client.Text(); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	return info
}
