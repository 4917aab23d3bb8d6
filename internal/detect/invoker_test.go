package detect

import (
	"context"
	"errors"
	"testing"
)

type fakeDetector struct {
	boxes []Box
	err   error
	calls int
}

func (f *fakeDetector) Detect(ctx context.Context, imagePath string) ([]Box, error) {
	f.calls++
	return f.boxes, f.err
}

type fakeLog struct {
	seen     map[string]bool
	recorded map[string][]Box
}

func newFakeLog() *fakeLog {
	return &fakeLog{seen: make(map[string]bool), recorded: make(map[string][]Box)}
}

func (f *fakeLog) Seen(imagePath string) (bool, error) {
	return f.seen[imagePath], nil
}

func (f *fakeLog) Record(imagePath string, boxes []Box) error {
	f.recorded[imagePath] = boxes
	return nil
}

type dropAllPostprocessor struct{}

func (dropAllPostprocessor) Postprocess(boxes []Box) []Box { return nil }

func TestInvokerViewAllowList(t *testing.T) {
	tests := []struct {
		name    string
		view    string
		wantRan bool
	}{
		{"supported view runs", "F", true},
		{"unsupported view is skipped", "T", false},
		{"no view always runs", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeDetector{boxes: []Box{{X1: 0, Y1: 0, X2: 10, Y2: 10}}}
			iv := NewInvoker(det, nil, nil, InvokerOptions{
				SupportedViews: []string{"F"},
				MaxOverlap:     0.1,
			})

			result := iv.Run(context.Background(), "/dest/img.jpg", "B5003/2021-07-06/Frontal", tt.view)
			if result.Ran != tt.wantRan {
				t.Errorf("Expected Ran=%v, got %v", tt.wantRan, result.Ran)
			}
			if tt.wantRan && len(result.Boxes) != 1 {
				t.Errorf("Expected 1 box, got %d", len(result.Boxes))
			}
		})
	}
}

func TestInvokerDetectorFailureIsZeroBoxes(t *testing.T) {
	det := &fakeDetector{err: errors.New("model crashed")}
	log := newFakeLog()
	iv := NewInvoker(det, nil, log, InvokerOptions{MaxOverlap: 0.1})

	result := iv.Run(context.Background(), "/dest/img.jpg", "B5003/2021-07-06", "")
	if !result.Ran {
		t.Error("Expected the invocation to count as run")
	}
	if len(result.Boxes) != 0 {
		t.Errorf("Expected zero boxes on detector failure, got %d", len(result.Boxes))
	}
	// A failed invocation must not be recorded, so a later run retries it.
	if _, ok := log.recorded["/dest/img.jpg"]; ok {
		t.Error("Expected no detection log record after a detector failure")
	}
}

func TestInvokerSkipsAlreadyRecorded(t *testing.T) {
	det := &fakeDetector{boxes: []Box{{X1: 0, Y1: 0, X2: 10, Y2: 10}}}
	log := newFakeLog()
	log.seen["/dest/img.jpg"] = true
	iv := NewInvoker(det, nil, log, InvokerOptions{MaxOverlap: 0.1})

	result := iv.Run(context.Background(), "/dest/img.jpg", "B5003/2021-07-06", "")
	if result.Ran {
		t.Error("Expected an already-recorded image to be skipped")
	}
	if det.calls != 0 {
		t.Errorf("Expected the detector not to be called, got %d calls", det.calls)
	}
}

func TestInvokerAppliesPostprocessorBeforeNMS(t *testing.T) {
	det := &fakeDetector{boxes: []Box{{X1: 0, Y1: 0, X2: 10, Y2: 10}}}
	log := newFakeLog()
	iv := NewInvoker(det, dropAllPostprocessor{}, log, InvokerOptions{MaxOverlap: 0.1})

	result := iv.Run(context.Background(), "/dest/img.jpg", "B5003/2021-07-06", "")
	if !result.Ran {
		t.Error("Expected the invocation to run")
	}
	if len(result.Boxes) != 0 {
		t.Errorf("Expected the postprocessor to drop all boxes, got %d", len(result.Boxes))
	}
	if boxes, ok := log.recorded["/dest/img.jpg"]; !ok || len(boxes) != 0 {
		t.Error("Expected a zero-box record after a successful run")
	}
}

func TestInvokerNMSPrunesRawOutput(t *testing.T) {
	det := &fakeDetector{boxes: []Box{
		{X1: 0, Y1: 0, X2: 100, Y2: 100},
		{X1: 40, Y1: 40, X2: 60, Y2: 60},
	}}
	iv := NewInvoker(det, nil, nil, InvokerOptions{MaxOverlap: 0.1})

	result := iv.Run(context.Background(), "/dest/img.jpg", "B5003/2021-07-06", "")
	if len(result.Boxes) != 1 {
		t.Fatalf("Expected NMS to prune to 1 box, got %d", len(result.Boxes))
	}
}
