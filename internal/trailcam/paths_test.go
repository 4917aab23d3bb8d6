package trailcam

import (
	"path/filepath"
	"testing"
	"time"
)

var testViews = ViewTable{
	"0": {Name: "Top", Abbrev: "T"},
	"5": {Name: "Frontal", Abbrev: "F"},
}

func TestParseSerialNumber(t *testing.T) {
	tests := []struct {
		name       string
		serial     string
		wantID     string
		wantName   string
		wantAbbrev string
	}{
		{
			name:       "leading digit mapped",
			serial:     "0042",
			wantID:     "0042",
			wantName:   "Top",
			wantAbbrev: "T",
		},
		{
			name:   "leading digit unmapped",
			serial: "9042",
			wantID: "9042",
		},
		{
			name:   "empty serial",
			serial: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, view := ParseSerialNumber(tt.serial, testViews)
			if id != tt.wantID {
				t.Errorf("Expected camera ID %q, got %q", tt.wantID, id)
			}
			if view.Name != tt.wantName || view.Abbrev != tt.wantAbbrev {
				t.Errorf("Expected view (%q, %q), got (%q, %q)", tt.wantName, tt.wantAbbrev, view.Name, view.Abbrev)
			}
		})
	}
}

func TestImagePath(t *testing.T) {
	capturedAt := time.Date(2021, 7, 6, 14, 23, 11, 0, time.Local)

	tests := []struct {
		name     string
		identity Identity
		ext      string
		want     string
	}{
		{
			name: "with view",
			identity: Identity{
				CameraID: "5003", ViewName: "Frontal", ViewAbbrev: "F", CapturedAt: capturedAt,
			},
			ext:  ".JPG",
			want: filepath.Join("dest", "B5003", "2021-07-06", "Frontal", "B5003F-20210706-142311.jpg"),
		},
		{
			name: "without view omits the view folder",
			identity: Identity{
				CameraID: "9042", CapturedAt: capturedAt,
			},
			ext:  "jpg",
			want: filepath.Join("dest", "B9042", "2021-07-06", "B9042-20210706-142311.jpg"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImagePath("dest", "B", tt.identity, tt.ext)
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestImagePathDeterministic(t *testing.T) {
	id := Identity{
		CameraID: "0042", ViewName: "Top", ViewAbbrev: "T",
		CapturedAt: time.Date(2022, 3, 1, 6, 0, 59, 0, time.Local),
	}
	first := ImagePath("/data", "C", id, ".jpg")
	for i := 0; i < 10; i++ {
		if got := ImagePath("/data", "C", id, ".jpg"); got != first {
			t.Fatalf("ImagePath is not deterministic: %s vs %s", first, got)
		}
	}
}

func TestSplitImageFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     FilenameParts
		wantErr  bool
	}{
		{
			name:     "filename with view",
			filename: "B5003F-20210706-142311.jpg",
			want: FilenameParts{
				CameraID: "5003", ViewAbbrev: "F", Date: "2021-07-06", Time: "14:23:11",
			},
		},
		{
			name:     "filename without view",
			filename: "/some/path/B9042-20210706-142311.jpg",
			want: FilenameParts{
				CameraID: "9042", Date: "2021-07-06", Time: "14:23:11",
			},
		},
		{
			name:     "not canonical",
			filename: "IMG_0001.jpg",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitImageFilename(tt.filename, "B", testViews)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitImageFilename failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestNormalizeExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".JPG", ".jpg"},
		{"jpg", ".jpg"},
		{".jpeg", ".jpeg"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeExtension(tt.in); got != tt.want {
			t.Errorf("NormalizeExtension(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
