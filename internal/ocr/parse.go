package ocr

import (
	"regexp"
	"strings"
	"time"
)

var (
	// Banner date/time layouts seen across camera firmware revisions.
	dateTimeLayouts = []string{
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
		"01/02/2006 15:04:05",
		"02/01/2006 15:04:05",
	}

	datePattern   = regexp.MustCompile(`\d{2,4}[-/]\d{2}[-/]\d{2,4}`)
	timePattern   = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
	serialPattern = regexp.MustCompile(`\b\d{3,8}\b`)
)

// parseBannerText extracts banner fields from raw OCR text. The text is
// noisy: fields may be missing, mangled, or interleaved with temperature
// and moon-phase glyphs, so each field is recovered independently.
func parseBannerText(text string) Banner {
	var banner Banner

	date := datePattern.FindString(text)
	clock := timePattern.FindString(text)
	if date != "" && clock != "" {
		candidate := date + " " + clock
		for _, layout := range dateTimeLayouts {
			if ts, err := time.ParseInLocation(layout, candidate, time.Local); err == nil {
				banner.Timestamp = ts
				break
			}
		}
	}

	// The serial number is the first free-standing digit run that is not
	// part of the date or time.
	stripped := text
	if date != "" {
		stripped = strings.Replace(stripped, date, " ", 1)
	}
	if clock != "" {
		stripped = strings.Replace(stripped, clock, " ", 1)
	}
	banner.SerialNumber = serialPattern.FindString(stripped)

	return banner
}
