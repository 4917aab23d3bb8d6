// Package ocr reads the information banner that trail camera firmware burns
// into the bottom of every frame. The banner carries the camera serial
// number and the capture timestamp; it is the only identity source for
// cameras that do not write EXIF data.
//
// Banner reading is a pluggable capability. Three providers are supplied: a
// local tesseract reader, and two vision-model readers (Ollama and Gemini)
// for banners whose fonts defeat conventional OCR. Any field may be absent
// on a given image; callers degrade per field rather than failing the image.
package ocr

import (
	"context"
	"fmt"
	"time"
)

// Banner holds the fields extracted from one image's information banner.
// Zero values mean the field could not be read.
type Banner struct {
	SerialNumber string
	Timestamp    time.Time
}

// Reader extracts banner fields from an image file.
type Reader interface {
	ReadBanner(ctx context.Context, imagePath string) (Banner, error)
}

// NewReader returns the banner reader for the configured provider.
func NewReader(provider string) (Reader, error) {
	switch provider {
	case "tesseract":
		return NewTesseractReader(), nil
	case "ollama":
		return NewOllamaReader(), nil
	case "gemini":
		return NewGeminiReader(), nil
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", provider)
	}
}
