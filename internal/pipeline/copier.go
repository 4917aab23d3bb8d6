package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrDuplicateDestination means the canonical destination already holds an
// image. That is the idempotency signal, not an error condition: the entry
// is skipped and the existing file is never touched.
var ErrDuplicateDestination = errors.New("destination already exists")

// CopyImage copies src into dest so that a partially written file is never
// visible at the destination path. The bytes go to a temporary file in the
// destination directory first, then a hard link publishes them atomically.
// Linking fails if dest appeared in the meantime, so two entries racing to
// the same canonical name are decided deterministically — exactly one wins,
// the other reports ErrDuplicateDestination.
func CopyImage(src, dest string) error {
	// Cheap pre-check for the common re-run case.
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%s: %w", dest, ErrDuplicateDestination)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create destination folder: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source image: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush temporary file: %w", err)
	}

	if err := os.Link(tmpPath, dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", dest, ErrDuplicateDestination)
		}
		return fmt.Errorf("failed to publish image at destination: %w", err)
	}
	return nil
}
