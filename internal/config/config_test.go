package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trailcam.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}
	return path
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := writeConfig(t, `
general:
  image_destination: /data/images
  prefix: B
autocopy:
  camera_id: "2222"
  default_image_source: /mnt/card
camera_views:
  "5": "Frontal, F"
`)

	cfg, err := Load(path, Overrides{
		Source:   "/mnt/other",
		Dest:     "/data/override",
		CameraID: "1111",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.General.ImageDestination != "/data/override" {
		t.Errorf("Expected dest override, got %s", cfg.General.ImageDestination)
	}
	if cfg.Autocopy.DefaultImageSource != "/mnt/other" {
		t.Errorf("Expected source override, got %s", cfg.Autocopy.DefaultImageSource)
	}
	// The command-line camera ID is a separate precedence level, not a
	// config rewrite: the file's value must survive for the resolver to
	// rank the two.
	if cfg.Autocopy.CameraID != "2222" {
		t.Errorf("Expected config camera ID to survive, got %s", cfg.Autocopy.CameraID)
	}
	if v, ok := cfg.ViewTable["5"]; !ok || v.Name != "Frontal" || v.Abbrev != "F" {
		t.Errorf("Expected view table entry {Frontal F}, got %+v", cfg.ViewTable)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", Overrides{Dest: "/data/images"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.ShouldCopy() {
		t.Error("Expected copying enabled by default")
	}
	if cfg.Autocopy.OCRProvider != "tesseract" {
		t.Errorf("Expected default OCR provider tesseract, got %s", cfg.Autocopy.OCRProvider)
	}
	if cfg.Autocopy.Concurrency != 4 {
		t.Errorf("Expected default concurrency 4, got %d", cfg.Autocopy.Concurrency)
	}
	if cfg.Detector.MaxNMSOverlap != 0.1 {
		t.Errorf("Expected default NMS overlap 0.1, got %g", cfg.Detector.MaxNMSOverlap)
	}
}

func TestLoadDryRunDisablesCopying(t *testing.T) {
	cfg, err := Load("", Overrides{Dest: "/data/images", DryRun: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ShouldCopy() {
		t.Error("Expected dry run to disable copying")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing destination",
			content: `autocopy: {camera_id: "1"}`,
			wantErr: "image destination",
		},
		{
			name: "negative skip",
			content: `
general: {image_destination: /data}
autocopy: {skip_start: -1}
`,
			wantErr: "skip_start",
		},
		{
			name: "overlap out of range",
			content: `
general: {image_destination: /data}
detector: {max_nms_overlap: 1.5}
`,
			wantErr: "max_nms_overlap",
		},
		{
			name: "unknown ocr provider",
			content: `
general: {image_destination: /data}
autocopy: {ocr_provider: abbyy}
`,
			wantErr: "OCR provider",
		},
		{
			name: "detection without command",
			content: `
general: {image_destination: /data}
autocopy: {detect_objects: true}
`,
			wantErr: "detector.command",
		},
		{
			name: "malformed view",
			content: `
general: {image_destination: /data}
camera_views: {"5": "Frontal"}
`,
			wantErr: "camera view",
		},
		{
			name: "view key not a digit",
			content: `
general: {image_destination: /data}
camera_views: {"x": "Frontal, F"}
`,
			wantErr: "single digit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path, Overrides{})
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load("/nonexistent/trailcam.yaml", Overrides{}); err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}
