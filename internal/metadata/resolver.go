// Package metadata resolves the capture identity of one image — camera ID,
// view, and timestamp — from whichever sources are available. Sources form
// an explicit precedence chain; each is a fallible external capability and
// a failure in one degrades only the field it serves.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/camtrap-tools/camtrap/internal/ocr"
	"github.com/camtrap-tools/camtrap/internal/source"
	"github.com/camtrap-tools/camtrap/internal/trailcam"
)

// ErrIdentityUnresolved means no source could supply a camera ID. The image
// is skipped and logged, never copied.
var ErrIdentityUnresolved = errors.New("camera identity unresolved")

// BannerReader is the banner OCR capability.
type BannerReader interface {
	ReadBanner(ctx context.Context, imagePath string) (ocr.Banner, error)
}

// CaptureTimeReader is the EXIF capability.
type CaptureTimeReader interface {
	CaptureTime(imagePath string) (time.Time, error)
}

// Options configure a Resolver.
type Options struct {
	// CLICameraID is the command-line camera ID override, highest precedence.
	CLICameraID string
	// ConfigCameraID is the config-file camera ID, second precedence.
	ConfigCameraID string
	// UseExif selects EXIF as the capture time source instead of the banner.
	UseExif bool
	Views   trailcam.ViewTable
}

// Resolver produces a trailcam.Identity for one image.
type Resolver struct {
	opts   Options
	banner BannerReader
	exif   CaptureTimeReader
}

// NewResolver builds a resolver. banner may be nil when an explicit camera
// ID is configured and EXIF supplies timestamps; exif may be nil when
// UseExif is false.
func NewResolver(opts Options, banner BannerReader, exif CaptureTimeReader) *Resolver {
	return &Resolver{opts: opts, banner: banner, exif: exif}
}

// bannerOnce reads the banner at most once per image, shared between the
// camera-ID and capture-time fields.
type bannerOnce struct {
	reader BannerReader
	read   bool
	banner ocr.Banner
	err    error
}

func (b *bannerOnce) get(ctx context.Context, path string) (ocr.Banner, error) {
	if !b.read {
		b.read = true
		if b.reader == nil {
			b.err = errors.New("no banner reader configured")
		} else {
			b.banner, b.err = b.reader.ReadBanner(ctx, path)
		}
	}
	return b.banner, b.err
}

// Resolve determines the capture identity of one image. It fails only when
// no source yields a camera ID, or when UseExif is set and the image has no
// readable EXIF timestamp.
func (r *Resolver) Resolve(ctx context.Context, entry source.Entry) (trailcam.Identity, error) {
	banner := &bannerOnce{reader: r.banner}

	serial, err := r.resolveCameraID(ctx, entry, banner)
	if err != nil {
		return trailcam.Identity{}, err
	}

	capturedAt, err := r.resolveCaptureTime(ctx, entry, banner)
	if err != nil {
		return trailcam.Identity{}, err
	}

	cameraID, view := trailcam.ParseSerialNumber(serial, r.opts.Views)
	return trailcam.Identity{
		CameraID:   cameraID,
		ViewName:   view.Name,
		ViewAbbrev: view.Abbrev,
		CapturedAt: capturedAt,
	}, nil
}

// resolveCameraID walks the precedence chain: command line, config file,
// banner OCR. First non-empty answer wins.
func (r *Resolver) resolveCameraID(ctx context.Context, entry source.Entry, banner *bannerOnce) (string, error) {
	if r.opts.CLICameraID != "" {
		return r.opts.CLICameraID, nil
	}
	if r.opts.ConfigCameraID != "" {
		return r.opts.ConfigCameraID, nil
	}

	b, err := banner.get(ctx, entry.Path)
	if err != nil {
		slog.Warn("Banner OCR failed", "image", entry.Path, "err", err)
		return "", fmt.Errorf("%s: %w", entry.Path, ErrIdentityUnresolved)
	}
	if b.SerialNumber == "" {
		return "", fmt.Errorf("%s: %w", entry.Path, ErrIdentityUnresolved)
	}
	return b.SerialNumber, nil
}

// resolveCaptureTime picks the timestamp source. With UseExif the EXIF
// block is authoritative and a missing timestamp fails the image; otherwise
// the banner timestamp is used, degrading to the file's modification time
// when the banner cannot be parsed.
func (r *Resolver) resolveCaptureTime(ctx context.Context, entry source.Entry, banner *bannerOnce) (time.Time, error) {
	if r.opts.UseExif {
		if r.exif == nil {
			return time.Time{}, errors.New("use_exif is set but no EXIF reader is configured")
		}
		ts, err := r.exif.CaptureTime(entry.Path)
		if err != nil {
			return time.Time{}, fmt.Errorf("EXIF capture time unavailable: %w", err)
		}
		return ts, nil
	}

	b, err := banner.get(ctx, entry.Path)
	if err == nil && !b.Timestamp.IsZero() {
		return b.Timestamp, nil
	}
	return entry.ModTime, nil
}
