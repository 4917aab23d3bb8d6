package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/camtrap-tools/camtrap/internal/trailcam"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration. It is built once at
// startup from the YAML config file plus command-line overrides, validated,
// and then passed by reference into every component. Nothing mutates it
// after Load returns.
type Config struct {
	General  GeneralConfig     `yaml:"general"`
	Autocopy AutocopyConfig    `yaml:"autocopy"`
	Views    map[string]string `yaml:"camera_views"`
	Detector DetectorConfig    `yaml:"detector"`

	// ViewTable is the parsed form of Views.
	ViewTable trailcam.ViewTable `yaml:"-"`
}

// GeneralConfig holds settings shared by the trail camera tools.
type GeneralConfig struct {
	ImageDestination   string `yaml:"image_destination"`
	ErrorLogFile       string `yaml:"error_log_file"`
	ProgressReportFile string `yaml:"progress_report_file"`
	DetectionLogFile   string `yaml:"detection_log_file"`
	DetectionBoxFolder string `yaml:"detection_box_folder"`
	Prefix             string `yaml:"prefix"`
	TimeZone           string `yaml:"time_zone"`
}

// AutocopyConfig holds settings specific to ingestion.
type AutocopyConfig struct {
	CameraID           string    `yaml:"camera_id"`
	CameraModel        string    `yaml:"camera_model"`
	CopyImages         *bool     `yaml:"copy_images"`
	DetectObjects      bool      `yaml:"detect_objects"`
	DefaultImageSource string    `yaml:"default_image_source"`
	SDCardSizes        []float64 `yaml:"sd_card_sizes"`
	SkipStart          int       `yaml:"skip_start"`
	SkipEnd            int       `yaml:"skip_end"`
	UseExif            bool      `yaml:"use_exif"`
	OCRProvider        string    `yaml:"ocr_provider"`
	Concurrency        int       `yaml:"concurrency"`
}

// DetectorConfig holds settings for the pluggable animal detector.
type DetectorConfig struct {
	Command        []string `yaml:"command"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxNMSOverlap  float64  `yaml:"max_nms_overlap"`
	SupportedViews []string `yaml:"supported_views"`
}

// Overrides are the command-line values that take precedence over the
// config file. CameraID is not merged into the config: it stays a distinct
// precedence level so the metadata resolver can rank it above the config
// file's camera_id.
type Overrides struct {
	Source      string
	Dest        string
	CameraID    string
	Concurrency int
	DryRun      bool
}

// Load reads the YAML config file, applies defaults and command-line
// overrides, and validates the result. All validation failures are fatal
// here, before any image is touched.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if overrides.Source != "" {
		cfg.Autocopy.DefaultImageSource = overrides.Source
	}
	if overrides.Dest != "" {
		cfg.General.ImageDestination = overrides.Dest
	}
	if overrides.Concurrency > 0 {
		cfg.Autocopy.Concurrency = overrides.Concurrency
	}
	if overrides.DryRun {
		f := false
		cfg.Autocopy.CopyImages = &f
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			ErrorLogFile:       "error.log",
			ProgressReportFile: "autocopy_status.yaml",
			TimeZone:           "US/Eastern",
		},
		Autocopy: AutocopyConfig{
			SDCardSizes: []float64{32, 64},
			OCRProvider: "tesseract",
			Concurrency: 4,
		},
		Detector: DetectorConfig{
			TimeoutSeconds: 120,
			MaxNMSOverlap:  0.1,
		},
	}
}

// ShouldCopy reports whether images should actually be copied. Defaults to
// true when the config file does not say otherwise.
func (c *Config) ShouldCopy() bool {
	return c.Autocopy.CopyImages == nil || *c.Autocopy.CopyImages
}

// Location returns the configured time zone, used for report timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.General.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) validate() error {
	if c.General.ImageDestination == "" {
		return fmt.Errorf("no image destination configured: set general.image_destination or pass --dest")
	}
	if c.Autocopy.SkipStart < 0 || c.Autocopy.SkipEnd < 0 {
		return fmt.Errorf("skip_start and skip_end must be non-negative, got %d and %d",
			c.Autocopy.SkipStart, c.Autocopy.SkipEnd)
	}
	if c.Autocopy.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Autocopy.Concurrency)
	}
	if o := c.Detector.MaxNMSOverlap; o < 0 || o > 1 {
		return fmt.Errorf("detector.max_nms_overlap must be between 0 and 1, got %g", o)
	}
	switch c.Autocopy.OCRProvider {
	case "tesseract", "ollama", "gemini":
	default:
		return fmt.Errorf("unsupported OCR provider: %s (want tesseract, ollama, or gemini)", c.Autocopy.OCRProvider)
	}
	if c.Autocopy.DetectObjects && len(c.Detector.Command) == 0 {
		return fmt.Errorf("detect_objects is enabled but detector.command is not configured")
	}

	views, err := ParseViews(c.Views)
	if err != nil {
		return err
	}
	c.ViewTable = views
	return nil
}

// ParseViews converts the raw camera_views section into a view table. Each
// entry maps a single digit to "<full name>, <single-character abbreviation>".
func ParseViews(raw map[string]string) (trailcam.ViewTable, error) {
	views := make(trailcam.ViewTable, len(raw))
	for digit, spec := range raw {
		if len(digit) != 1 || digit[0] < '0' || digit[0] > '9' {
			return nil, fmt.Errorf("camera view key must be a single digit, got %q", digit)
		}
		parts := strings.Split(spec, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("camera view %s is not of the form <full name>, <single-character abbreviation>: %q", digit, spec)
		}
		name := strings.TrimSpace(parts[0])
		abbrev := strings.TrimSpace(parts[1])
		if name == "" || len(abbrev) != 1 {
			return nil, fmt.Errorf("camera view %s is not of the form <full name>, <single-character abbreviation>: %q", digit, spec)
		}
		views[digit] = trailcam.View{Name: name, Abbrev: abbrev}
	}
	return views, nil
}
