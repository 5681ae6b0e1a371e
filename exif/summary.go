package exif

import (
	"strconv"
	"strings"
	"time"
)

// Summary is the handful of tags the gallery cares about, pulled from a
// raw exiftool result. Absent tags stay at their zero value.
type Summary struct {
	CameraMake  string
	CameraModel string
	LensModel   string
	TakenAt     *time.Time
	Width       int
	Height      int
}

// tag lookup order: more specific sources first.
var (
	takenAtRefs = []string{"datetimeoriginal", "createdate", "mediacreatedate"}
	makeRefs    = []string{"make"}
	modelRefs   = []string{"model"}
	lensRefs    = []string{"lensmodel", "lensid"}
	widthRefs   = []string{"imagewidth", "exifimagewidth"}
	heightRefs  = []string{"imageheight", "exifimageheight"}
)

// Summarize condenses raw metadata. It never fails: unparseable values
// are dropped field by field.
func Summarize(raw RawMetadata) Summary {
	var s Summary

	if v, ok := findString(raw, takenAtRefs); ok {
		if t, ok := parseExifTime(v); ok {
			s.TakenAt = &t
		}
	}
	s.CameraMake, _ = findString(raw, makeRefs)
	s.CameraModel, _ = findString(raw, modelRefs)
	s.LensModel, _ = findString(raw, lensRefs)
	s.Width, _ = findInt(raw, widthRefs)
	s.Height, _ = findInt(raw, heightRefs)

	return s
}

func (s Summary) IsZero() bool {
	return s.CameraMake == "" && s.CameraModel == "" && s.LensModel == "" &&
		s.TakenAt == nil && s.Width == 0 && s.Height == 0
}

// find matches a tag by its name regardless of the -G1 group prefix.
func find(raw RawMetadata, refs []string) (any, bool) {
	for _, ref := range refs {
		for key, mv := range raw {
			tag := key
			if idx := strings.LastIndex(key, ":"); idx >= 0 {
				tag = key[idx+1:]
			}
			if tag == ref {
				return mv.Value, true
			}
		}
	}
	return nil, false
}

func findString(raw RawMetadata, refs []string) (string, bool) {
	v, ok := find(raw, refs)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func findInt(raw RawMetadata, refs []string) (int, bool) {
	v, ok := find(raw, refs)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// exiftool emits colon separated dates, optionally with subseconds and a
// zone offset.
var exifTimeLayouts = []string{
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05.00-07:00",
	"2006:01:02 15:04:05Z",
	"2006:01:02 15:04:05.00",
	"2006:01:02 15:04:05",
	"2006:01:02",
}

func parseExifTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range exifTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
