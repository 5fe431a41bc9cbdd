package scraper

import (
	"strconv"
	"strings"
	"time"

	"github.com/setu007/play-scraper-render/pkg/models"
)

const unknownPublisherPrefix = "unknown:"

// Fields is the mechanism-independent view of an upstream app record. Each
// resolver maps its own shape into Fields; Normalize applies the shared rules.
type Fields struct {
	AppID         string
	PublisherID   string
	PublisherName string
	Title         string
	Updated       any // string, number or nil
}

// Normalize builds the canonical AppMetadata for requestedID.
//
// The publisher key is the explicit id, else the display name, else
// "unknown:no-name". Distinct names therefore never share a bucket.
func Normalize(requestedID string, f Fields) models.AppMetadata {
	appID := strings.TrimSpace(f.AppID)
	if appID == "" {
		appID = requestedID
	}

	name := strings.TrimSpace(f.PublisherName)
	pubID := strings.TrimSpace(f.PublisherID)
	if pubID == "" {
		pubID = name
	}
	if pubID == "" {
		pubID = unknownPublisherPrefix + "no-name"
	}

	return models.AppMetadata{
		AppID:         appID,
		PublisherID:   pubID,
		PublisherName: name,
		Title:         strings.TrimSpace(f.Title),
		LastUpdated:   ParseUpdated(f.Updated),
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan. 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseUpdated converts an upstream last-update value into unix milliseconds.
// Numbers below 1e11 are taken as seconds. Anything unparsable yields 0, the
// "no known update" sentinel.
func ParseUpdated(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return fromNumber(float64(t))
	case int:
		return fromNumber(float64(t))
	case float64:
		return fromNumber(t)
	case time.Time:
		if t.IsZero() {
			return 0
		}
		return t.UnixMilli()
	case string:
		return parseDateString(t)
	default:
		return 0
	}
}

func fromNumber(n float64) int64 {
	if n <= 0 {
		return 0
	}
	if n < 1e11 {
		return int64(n * 1000)
	}
	return int64(n)
}

func parseDateString(s string) int64 {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range []string{"updated on", "updated"} {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			s = strings.TrimLeft(s, ": ")
			break
		}
	}
	if s == "" {
		return 0
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromNumber(n)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
