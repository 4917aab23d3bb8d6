// Package exif reads the capture timestamp that some trail cameras write
// into their images' EXIF blocks. Not every camera does; the missing-tag
// case is an ordinary capability failure, handled per image by the caller.
package exif

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Reader extracts capture times from EXIF data.
type Reader struct{}

// NewReader creates an EXIF reader.
func NewReader() *Reader {
	return &Reader{}
}

// CaptureTime returns the EXIF DateTimeOriginal (falling back to DateTime)
// of the image.
func (r *Reader) CaptureTime(imagePath string) (time.Time, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open image for EXIF: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode EXIF in %s: %w", imagePath, err)
	}

	ts, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("no EXIF capture time in %s: %w", imagePath, err)
	}
	return ts, nil
}
