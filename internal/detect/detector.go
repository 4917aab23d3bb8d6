// Package detect runs a pluggable animal detector over copied images and
// prunes its output with non-maximum suppression. The detector itself is an
// external capability: any program that maps an image path to bounding
// boxes can be plugged in, and its failures degrade to "no detections"
// rather than disturbing the ingestion run.
package detect

import "context"

// Box is one detection in source-image pixel coordinates, with X1 < X2 and
// Y1 < Y2.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Area returns the area of the box.
func (b Box) Area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Valid reports whether the box has positive extent on both axes.
func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// intersectionArea returns the area of the overlap between two boxes, zero
// when they are disjoint.
func intersectionArea(a, b Box) float64 {
	w := min(a.X2, b.X2) - max(a.X1, b.X1)
	h := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Detector is the external detection capability.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]Box, error)
}

// Postprocessor is an optional application-specific hook that filters raw
// detector output before non-maximum suppression, e.g. to drop boxes in a
// region a feeder occupies.
type Postprocessor interface {
	Postprocess(boxes []Box) []Box
}
