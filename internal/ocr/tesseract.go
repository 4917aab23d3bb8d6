package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// bannerFraction is the share of the frame height, measured from the
// bottom, that contains the information banner.
const bannerFraction = 0.12

// TesseractReader reads banners with a local tesseract engine. It crops the
// banner strip off the bottom of the frame before OCR so the engine never
// sees the scene itself.
type TesseractReader struct{}

// NewTesseractReader creates a tesseract-backed banner reader.
func NewTesseractReader() *TesseractReader {
	return &TesseractReader{}
}

// ReadBanner implements Reader.
func (r *TesseractReader) ReadBanner(ctx context.Context, imagePath string) (Banner, error) {
	strip, err := cropBannerStrip(imagePath)
	if err != nil {
		return Banner{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetWhitelist("0123456789:/- APMCamer"); err != nil {
		return Banner{}, fmt.Errorf("failed to set OCR whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(strip); err != nil {
		return Banner{}, fmt.Errorf("failed to load banner strip: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Banner{}, fmt.Errorf("tesseract failed on %s: %w", imagePath, err)
	}

	return parseBannerText(text), nil
}

// cropBannerStrip decodes the image and returns the banner strip from the
// bottom of the frame, re-encoded as PNG for the OCR engine.
func cropBannerStrip(imagePath string) ([]byte, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image for OCR: %w", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for OCR: %w", err)
	}

	bounds := img.Bounds()
	stripTop := bounds.Max.Y - int(float64(bounds.Dy())*bannerFraction)
	stripRect := image.Rect(bounds.Min.X, stripTop, bounds.Max.X, bounds.Max.Y)

	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image type %T does not support cropping", img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(stripRect)); err != nil {
		return nil, fmt.Errorf("failed to encode banner strip: %w", err)
	}
	return buf.Bytes(), nil
}
