package scraper

import (
	"testing"
	"time"
)

func TestNormalize_PublisherID(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		wantID string
	}{
		{"explicit id", Fields{PublisherID: "5700313618786177705", PublisherName: "Acme"}, "5700313618786177705"},
		{"name fallback", Fields{PublisherName: "  Acme Games  "}, "Acme Games"},
		{"nothing", Fields{}, "unknown:no-name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize("com.acme.app", tt.fields)
			if m.PublisherID != tt.wantID {
				t.Fatalf("PublisherID = %q, want %q", m.PublisherID, tt.wantID)
			}
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	m := Normalize("com.req.id", Fields{PublisherName: "X"})
	if m.AppID != "com.req.id" {
		t.Fatalf("AppID = %q", m.AppID)
	}
	if m.Title != "" || m.LastUpdated != 0 {
		t.Fatalf("unexpected title/update: %+v", m)
	}

	m = Normalize("com.req.id", Fields{AppID: "com.other", Title: " T "})
	if m.AppID != "com.other" || m.Title != "T" {
		t.Fatalf("got %+v", m)
	}
}

func TestParseUpdated(t *testing.T) {
	mar5 := time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC).UnixMilli()
	mar5at10 := time.Date(2021, 3, 5, 10, 0, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"iso", "2021-03-05T10:00:00Z", mar5at10},
		{"date only", "2021-03-05", mar5},
		{"label", "Updated on Mar 5, 2021", mar5},
		{"long label", "Updated on March 5, 2021", mar5},
		{"day first", "5 March 2021", mar5},
		{"seconds", float64(1614938400), mar5at10},
		{"millis", float64(1614938400000), mar5at10},
		{"int seconds", 1614938400, mar5at10},
		{"numeric string", "1614938400000", mar5at10},
		{"time", time.UnixMilli(mar5), mar5},
		{"garbage", "recently", 0},
		{"negative", float64(-5), 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseUpdated(tt.in); got != tt.want {
				t.Fatalf("ParseUpdated(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
