package source

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one raw image file discovered under a source root.
type Entry struct {
	Path    string
	Ext     string
	ModTime time.Time
}

// Batch is the ordered collection of image files found under one source
// root (typically one SD card). Entries are ordered by path, which for
// trail cameras is monotonic with capture order. A batch is immutable once
// enumerated.
type Batch struct {
	Root    string
	Entries []Entry
}

// Enumerate walks the source root recursively and collects every file with
// the given extension (case-insensitive), sorted by path.
func Enumerate(root, extension string) (*Batch, error) {
	ext := strings.ToLower(extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fileExt := strings.ToLower(filepath.Ext(path))
		if ext != "" && fileExt != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: path, Ext: fileExt, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate source %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return &Batch{Root: root, Entries: entries}, nil
}

// Window returns the batch entries with the first skipStart and last
// skipEnd excluded. Swapping an SD card leaves frames of the field worker's
// hands at both ends of the card; those frames must never enter the
// pipeline. A window that consumes the whole batch yields an empty slice,
// which is not an error.
func (b *Batch) Window(skipStart, skipEnd int) []Entry {
	if skipStart+skipEnd >= len(b.Entries) {
		return nil
	}
	return b.Entries[skipStart : len(b.Entries)-skipEnd]
}
