package detect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log is the durable record of detector runs. It is consulted across runs:
// an image already present in the log is not re-examined.
type Log interface {
	Seen(imagePath string) (bool, error)
	Record(imagePath string, boxes []Box) error
}

// InvokerOptions configure an Invoker.
type InvokerOptions struct {
	// SupportedViews is the allow-list of view abbreviations detection may
	// run on. Images with no view always run.
	SupportedViews []string
	// MaxOverlap is the non-maximum suppression threshold.
	MaxOverlap float64
	// BoxFolder, when set, receives a per-image ".boxes" file mirroring the
	// destination layout.
	BoxFolder string
}

// Result describes one invoker pass over one image.
type Result struct {
	// Ran is false when the image's view is outside the allow-list or the
	// image was already in the detection log.
	Ran   bool
	Boxes []Box
}

// Invoker drives the external detector for one image: allow-list check,
// detection, optional postprocessing, non-maximum suppression, and
// persistence. Detector failures are contained here — the copy that already
// happened is never affected.
type Invoker struct {
	detector Detector
	post     Postprocessor
	log      Log
	opts     InvokerOptions
	views    map[string]bool
}

// NewInvoker builds an invoker. post and log may be nil.
func NewInvoker(detector Detector, post Postprocessor, log Log, opts InvokerOptions) *Invoker {
	views := make(map[string]bool, len(opts.SupportedViews))
	for _, v := range opts.SupportedViews {
		if v = strings.TrimSpace(v); v != "" {
			views[v] = true
		}
	}
	return &Invoker{detector: detector, post: post, log: log, opts: opts, views: views}
}

// Run examines one copied image. imagePath is the destination path, relDir
// its directory relative to the destination root, viewAbbrev the image's
// resolved view ("" when the camera has no view).
func (iv *Invoker) Run(ctx context.Context, imagePath, relDir, viewAbbrev string) Result {
	if viewAbbrev != "" && len(iv.views) > 0 && !iv.views[viewAbbrev] {
		return Result{}
	}

	if iv.log != nil {
		seen, err := iv.log.Seen(imagePath)
		if err != nil {
			slog.Warn("Detection log lookup failed", "image", imagePath, "err", err)
		} else if seen {
			return Result{}
		}
	}

	raw, err := iv.detector.Detect(ctx, imagePath)
	if err != nil {
		// A detector crash or timeout costs only this image's detections.
		slog.Warn("Detector failed, treating as zero boxes", "image", imagePath, "err", err)
		return Result{Ran: true}
	}

	if iv.post != nil {
		raw = iv.post.Postprocess(raw)
	}
	boxes := Suppress(raw, iv.opts.MaxOverlap)

	if iv.log != nil {
		if err := iv.log.Record(imagePath, boxes); err != nil {
			slog.Warn("Failed to record detections", "image", imagePath, "err", err)
		}
	}
	if iv.opts.BoxFolder != "" && len(boxes) > 0 {
		if err := writeBoxFile(iv.opts.BoxFolder, relDir, imagePath, boxes); err != nil {
			slog.Warn("Failed to write box file", "image", imagePath, "err", err)
		}
	}

	return Result{Ran: true, Boxes: boxes}
}

// writeBoxFile stores surviving boxes as one "x1,y1,x2,y2" line each, in a
// tree mirroring the destination layout.
func writeBoxFile(boxFolder, relDir, imagePath string, boxes []Box) error {
	base := filepath.Base(imagePath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".boxes"
	dir := filepath.Join(boxFolder, relDir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create box folder: %w", err)
	}

	var sb strings.Builder
	for _, b := range boxes {
		fmt.Fprintf(&sb, "%g,%g,%g,%g\n", b.X1, b.Y1, b.X2, b.Y2)
	}
	if err := os.WriteFile(filepath.Join(dir, base), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write box file: %w", err)
	}
	return nil
}
