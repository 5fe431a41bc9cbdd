package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/setu007/play-scraper-render/internal/scraper"
	"github.com/setu007/play-scraper-render/pkg/models"
)

func TestCSV_QuotesEveryField(t *testing.T) {
	rows := []models.PublisherAggregate{{
		PublisherID:      "123",
		Name:             `He said "hi"`,
		AppCount:         2,
		MostRecentUpdate: time.Date(2021, 3, 5, 23, 30, 0, 0, time.UTC).UnixMilli(),
		SampleTitles: []models.SampleApp{
			{AppID: "com.a", Title: "A, the app"},
			{AppID: "com.b", Title: ""},
		},
	}}

	got := string(CSV(rows))
	want := `"developerId","developerName","appCount","latestUpdate","sampleApps"` + "\n" +
		`"123","He said ""hi""","2","2021-03-05","A, the app (com.a) |  (com.b)"`
	if got != want {
		t.Fatalf("CSV =\n%s\nwant\n%s", got, want)
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	rows := []models.PublisherAggregate{
		{PublisherID: "x", Name: `Quote "Co"`, AppCount: 1, SampleTitles: []models.SampleApp{{AppID: "com.x", Title: "X"}}},
		{PublisherID: "y", Name: "Plain", AppCount: 3},
	}

	records, err := csv.NewReader(bytes.NewReader(CSV(rows))).ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if !reflect.DeepEqual(records[0], Header) {
		t.Fatalf("header = %v", records[0])
	}
	for i, p := range rows {
		if !reflect.DeepEqual(records[i+1], Row(p)) {
			t.Fatalf("row %d = %v, want %v", i, records[i+1], Row(p))
		}
	}
	if records[1][1] != `Quote "Co"` || records[2][3] != "unknown" {
		t.Fatalf("unexpected values: %v", records)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(0); got != "unknown" {
		t.Fatalf("FormatDate(0) = %q", got)
	}
	if got := FormatDate(1614938400000); got != "2021-03-05" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func testRunResult(errs int) *scraper.RunResult {
	res := &scraper.RunResult{
		Keywords:            []string{"zz_nonexistent_kw_xyz"},
		PerKeyword:          5,
		Publishers:          scraper.NewAggregates(),
		TotalCandidatesSeen: 5,
	}
	for i := 0; i < errs; i++ {
		res.Errors = append(res.Errors, fmt.Sprintf("com.app%d: not found", i))
	}
	return res
}

func TestRender_EmptyFallbacks(t *testing.T) {
	diag := NewDiagnostics(testRunResult(2), scraper.InactiveOnly)

	plain, err := Render(nil, PlainEmptyCSV, diag)
	if err != nil {
		t.Fatalf("Render plain: %v", err)
	}
	if !plain.IsCSV() || strings.Contains(string(plain.Body), "\n") {
		t.Fatalf("plain should be header only, got %q", plain.Body)
	}

	ph, err := Render(nil, PlaceholderRows, diag)
	if err != nil {
		t.Fatalf("Render placeholder: %v", err)
	}
	if !ph.IsCSV() || strings.Count(string(ph.Body), "\n") != len(Placeholders) ||
		!strings.Contains(string(ph.Body), "PLACEHOLDER") {
		t.Fatalf("placeholder body = %q", ph.Body)
	}

	js, err := Render(nil, DiagnosticJSON, diag)
	if err != nil {
		t.Fatalf("Render diagnostic: %v", err)
	}
	if js.IsCSV() || js.ContentType != ContentTypeJSON {
		t.Fatalf("content type = %q", js.ContentType)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Body, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"ok", "message", "keywords", "appsPerKeyword", "totalAppsSeen", "totalDevelopers", "errors"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, js.Body)
		}
	}
	if decoded["ok"] != true || decoded["appsPerKeyword"] != float64(5) {
		t.Fatalf("unexpected body %s", js.Body)
	}
}

func TestRender_RowsIgnoreFallback(t *testing.T) {
	rows := []models.PublisherAggregate{{PublisherID: "p", AppCount: 1}}
	doc, err := Render(rows, DiagnosticJSON, Diagnostics{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !doc.IsCSV() || !strings.Contains(string(doc.Body), `"p"`) {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestNewDiagnostics_CapsErrors(t *testing.T) {
	d := NewDiagnostics(testRunResult(45), scraper.All)
	if len(d.Errors) != 30 {
		t.Fatalf("errors = %d, want 30", len(d.Errors))
	}
	if d.Errors[0] != "com.app0: not found" {
		t.Fatalf("first error = %q", d.Errors[0])
	}
}

func TestParseEmptyFallback(t *testing.T) {
	tests := []struct {
		in      string
		want    EmptyFallback
		wantErr bool
	}{
		{"plain", PlainEmptyCSV, false},
		{"Placeholder", PlaceholderRows, false},
		{"diagnostic", DiagnosticJSON, false},
		{"json", DiagnosticJSON, false},
		{"html", PlainEmptyCSV, true},
	}
	for _, tt := range tests {
		got, err := ParseEmptyFallback(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseEmptyFallback(%q) = %v, %v", tt.in, got, err)
		}
	}
}
