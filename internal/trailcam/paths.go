package trailcam

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Path grammar for the destination tree. Images are filed as
//
//	<dest>/<prefix><ID>/<YYYY-MM-DD>/<view name>/<prefix><ID><abbrev>-<YYYYMMDD>-<HHMMSS>.<ext>
//
// with the view segments omitted when the camera has no configured view.
// The grammar is deterministic: the same identity always maps to the same
// path, which is what makes the destination tree itself the idempotency
// ledger — a re-run can detect already-copied images purely by existence.

// ImageFilename builds the canonical filename for an image.
func ImageFilename(prefix string, id Identity, extension string) string {
	ext := NormalizeExtension(extension)
	return fmt.Sprintf("%s%s%s-%s-%s%s",
		prefix, id.CameraID, id.ViewAbbrev,
		id.CapturedAt.Format("20060102"),
		id.CapturedAt.Format("150405"),
		ext)
}

// ImageDir builds the destination directory for an image, relative to the
// destination root.
func ImageDir(prefix string, id Identity) string {
	date := id.CapturedAt.Format("2006-01-02")
	if !id.HasView() {
		return filepath.Join(prefix+id.CameraID, date)
	}
	return filepath.Join(prefix+id.CameraID, date, id.ViewName)
}

// ImagePath builds the full destination path for an image under dest.
func ImagePath(dest, prefix string, id Identity, extension string) string {
	return filepath.Join(dest, ImageDir(prefix, id), ImageFilename(prefix, id, extension))
}

// NormalizeExtension lower-cases an extension and guarantees a leading dot.
func NormalizeExtension(extension string) string {
	ext := strings.ToLower(extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// FilenameParts holds the fields recovered from a canonical image filename.
type FilenameParts struct {
	CameraID   string
	ViewAbbrev string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM:SS
}

// SplitImageFilename parses a canonical image filename back into its parts.
// Downstream tools (annotation, video composition) rely on this to recover
// identity without re-reading the image.
func SplitImageFilename(filename, prefix string, views ViewTable) (FilenameParts, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(base, "-")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], prefix) {
		return FilenameParts{}, fmt.Errorf("not a canonical image filename: %s", filename)
	}
	camera := parts[0][len(prefix):]
	if len(parts[1]) != 8 || len(parts[2]) != 6 {
		return FilenameParts{}, fmt.Errorf("malformed datetime in image filename: %s", filename)
	}

	out := FilenameParts{
		Date: parts[1][:4] + "-" + parts[1][4:6] + "-" + parts[1][6:],
		Time: parts[2][:2] + ":" + parts[2][2:4] + ":" + parts[2][4:],
	}

	// The trailing character is a view abbreviation only if some view uses it.
	if camera != "" {
		last := camera[len(camera)-1:]
		for _, v := range views {
			if v.Abbrev == last {
				out.ViewAbbrev = last
				camera = camera[:len(camera)-1]
				break
			}
		}
	}
	out.CameraID = camera
	return out, nil
}
