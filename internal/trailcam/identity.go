package trailcam

import "time"

// View is one camera viewpoint, keyed by the leading digit of the camera
// serial number. Cameras whose IDs start with the same digit share a view.
type View struct {
	Name   string // full view name, used as a folder name
	Abbrev string // single-character abbreviation, used in filenames
}

// ViewTable maps a serial-number digit ("0".."9") to its view.
type ViewTable map[string]View

// Identity is the resolved capture identity for one image: which camera took
// it, from which viewpoint, and when.
type Identity struct {
	CameraID   string
	ViewName   string
	ViewAbbrev string
	CapturedAt time.Time
}

// HasView reports whether the identity carries a viewpoint. Identities
// without a view are valid; the view folder is simply omitted from paths.
func (id Identity) HasView() bool {
	return id.ViewAbbrev != ""
}

// ParseSerialNumber splits a camera serial number into the camera ID and its
// view, looked up from the leading digit. An ID whose leading digit has no
// entry in the table resolves to an empty view, not an error.
func ParseSerialNumber(serial string, views ViewTable) (cameraID string, view View) {
	if serial == "" {
		return "", View{}
	}
	if v, ok := views[serial[:1]]; ok {
		return serial, v
	}
	return serial, View{}
}
