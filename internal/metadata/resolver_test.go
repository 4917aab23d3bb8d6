package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camtrap-tools/camtrap/internal/ocr"
	"github.com/camtrap-tools/camtrap/internal/source"
	"github.com/camtrap-tools/camtrap/internal/trailcam"
)

var testViews = trailcam.ViewTable{
	"0": {Name: "Top", Abbrev: "T"},
	"5": {Name: "Frontal", Abbrev: "F"},
}

type fakeBanner struct {
	banner ocr.Banner
	err    error
	calls  int
}

func (f *fakeBanner) ReadBanner(ctx context.Context, imagePath string) (ocr.Banner, error) {
	f.calls++
	return f.banner, f.err
}

type fakeExif struct {
	ts  time.Time
	err error
}

func (f *fakeExif) CaptureTime(imagePath string) (time.Time, error) {
	return f.ts, f.err
}

func entryWithMtime(ts time.Time) source.Entry {
	return source.Entry{Path: "/card/IMG_0001.jpg", Ext: ".jpg", ModTime: ts}
}

func TestResolveCameraIDPrecedence(t *testing.T) {
	bannerTime := time.Date(2021, 7, 6, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name       string
		opts       Options
		banner     *fakeBanner
		wantID     string
		wantBanner int // expected banner reads
	}{
		{
			name:       "command line wins over config and banner",
			opts:       Options{CLICameraID: "1111", ConfigCameraID: "2222", Views: testViews},
			banner:     &fakeBanner{banner: ocr.Banner{SerialNumber: "3333", Timestamp: bannerTime}},
			wantID:     "1111",
			wantBanner: 1, // still read once, for the timestamp
		},
		{
			name:       "config wins over banner",
			opts:       Options{ConfigCameraID: "2222", Views: testViews},
			banner:     &fakeBanner{banner: ocr.Banner{SerialNumber: "3333", Timestamp: bannerTime}},
			wantID:     "2222",
			wantBanner: 1,
		},
		{
			name:       "banner serial used when no override",
			opts:       Options{Views: testViews},
			banner:     &fakeBanner{banner: ocr.Banner{SerialNumber: "3333", Timestamp: bannerTime}},
			wantID:     "3333",
			wantBanner: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.opts, tt.banner, nil)
			id, err := r.Resolve(context.Background(), entryWithMtime(time.Now()))
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if id.CameraID != tt.wantID {
				t.Errorf("Expected camera ID %s, got %s", tt.wantID, id.CameraID)
			}
			if tt.banner.calls != tt.wantBanner {
				t.Errorf("Expected %d banner reads, got %d", tt.wantBanner, tt.banner.calls)
			}
		})
	}
}

func TestResolveIdentityUnresolved(t *testing.T) {
	tests := []struct {
		name   string
		banner BannerReader
	}{
		{"banner OCR fails", &fakeBanner{err: errors.New("unreadable banner")}},
		{"banner has no serial", &fakeBanner{banner: ocr.Banner{}}},
		{"no banner reader configured", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(Options{Views: testViews}, tt.banner, nil)
			_, err := r.Resolve(context.Background(), entryWithMtime(time.Now()))
			if !errors.Is(err, ErrIdentityUnresolved) {
				t.Errorf("Expected ErrIdentityUnresolved, got %v", err)
			}
		})
	}
}

func TestResolveViewDerivation(t *testing.T) {
	tests := []struct {
		name       string
		serial     string
		wantName   string
		wantAbbrev string
	}{
		{"mapped leading digit", "0042", "Top", "T"},
		{"unmapped leading digit leaves view empty", "9042", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(Options{CLICameraID: tt.serial, Views: testViews}, nil, nil)
			id, err := r.Resolve(context.Background(), entryWithMtime(time.Now()))
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if id.ViewName != tt.wantName || id.ViewAbbrev != tt.wantAbbrev {
				t.Errorf("Expected view (%q, %q), got (%q, %q)", tt.wantName, tt.wantAbbrev, id.ViewName, id.ViewAbbrev)
			}
		})
	}
}

func TestResolveCaptureTime(t *testing.T) {
	bannerTime := time.Date(2021, 7, 6, 9, 0, 0, 0, time.Local)
	exifTime := time.Date(2021, 7, 6, 10, 30, 0, 0, time.Local)
	mtime := time.Date(2021, 7, 6, 11, 45, 0, 0, time.Local)

	tests := []struct {
		name    string
		opts    Options
		banner  BannerReader
		exif    CaptureTimeReader
		want    time.Time
		wantErr bool
	}{
		{
			name:   "banner timestamp preferred without use_exif",
			opts:   Options{CLICameraID: "5003"},
			banner: &fakeBanner{banner: ocr.Banner{Timestamp: bannerTime}},
			want:   bannerTime,
		},
		{
			name:   "mtime fallback when banner has no timestamp",
			opts:   Options{CLICameraID: "5003"},
			banner: &fakeBanner{banner: ocr.Banner{}},
			want:   mtime,
		},
		{
			name: "mtime fallback when no banner reader",
			opts: Options{CLICameraID: "5003"},
			want: mtime,
		},
		{
			name: "exif when use_exif is set",
			opts: Options{CLICameraID: "5003", UseExif: true},
			exif: &fakeExif{ts: exifTime},
			want: exifTime,
		},
		{
			name:    "exif failure fails the image, no banner fallback",
			opts:    Options{CLICameraID: "5003", UseExif: true},
			banner:  &fakeBanner{banner: ocr.Banner{Timestamp: bannerTime}},
			exif:    &fakeExif{err: errors.New("no EXIF block")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.opts, tt.banner, tt.exif)
			id, err := r.Resolve(context.Background(), entryWithMtime(mtime))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !id.CapturedAt.Equal(tt.want) {
				t.Errorf("Expected capture time %v, got %v", tt.want, id.CapturedAt)
			}
		})
	}
}
