package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/setu007/play-scraper-render/internal/scraper"
	"github.com/setu007/play-scraper-render/pkg/models"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"

	maxDiagnosticErrors = 30
)

// EmptyFallback picks what to send when no publisher passed the filter.
type EmptyFallback int

const (
	// PlainEmptyCSV sends the header line only.
	PlainEmptyCSV EmptyFallback = iota
	// PlaceholderRows sends the header plus sample rows marked as placeholders.
	PlaceholderRows
	// DiagnosticJSON sends a JSON summary of the run instead of a CSV.
	DiagnosticJSON
)

func (f EmptyFallback) String() string {
	switch f {
	case PlaceholderRows:
		return "placeholder"
	case DiagnosticJSON:
		return "diagnostic"
	default:
		return "plain"
	}
}

func ParseEmptyFallback(s string) (EmptyFallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return PlainEmptyCSV, nil
	case "placeholder", "placeholders":
		return PlaceholderRows, nil
	case "diagnostic", "diagnostics", "json":
		return DiagnosticJSON, nil
	default:
		return PlainEmptyCSV, fmt.Errorf("unsupported empty fallback: %q (must be one of: plain, placeholder, diagnostic)", s)
	}
}

// Placeholders are the rows sent by PlaceholderRows. They use an id prefix no
// real publisher can have.
var Placeholders = []models.PublisherAggregate{
	{
		PublisherID: "placeholder:1",
		Name:        "PLACEHOLDER (no matching developers found)",
		AppCount:    1,
		SampleTitles: []models.SampleApp{
			{AppID: "com.example.placeholder.one", Title: "Sample App One"},
		},
	},
	{
		PublisherID: "placeholder:2",
		Name:        "PLACEHOLDER (try other keywords or a larger per)",
		AppCount:    2,
		SampleTitles: []models.SampleApp{
			{AppID: "com.example.placeholder.two", Title: "Sample App Two"},
			{AppID: "com.example.placeholder.three", Title: "Sample App Three"},
		},
	},
}

// Diagnostics summarizes a run for the diagnostic JSON body.
type Diagnostics struct {
	OK              bool     `json:"ok"`
	Message         string   `json:"message"`
	Keywords        []string `json:"keywords"`
	AppsPerKeyword  int      `json:"appsPerKeyword"`
	TotalAppsSeen   int      `json:"totalAppsSeen"`
	TotalDevelopers int      `json:"totalDevelopers"`
	Errors          []string `json:"errors"`
}

// NewDiagnostics builds the summary of res. Only the first 30 errors are kept.
func NewDiagnostics(res *scraper.RunResult, policy scraper.FilterPolicy) Diagnostics {
	errs := res.Errors
	if len(errs) > maxDiagnosticErrors {
		errs = errs[:maxDiagnosticErrors]
	}
	if errs == nil {
		errs = []string{}
	}
	keywords := res.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return Diagnostics{
		OK: true,
		Message: fmt.Sprintf("no developers matched filter %q; %d apps seen across %d keywords",
			policy.String(), res.TotalCandidatesSeen, len(res.Keywords)),
		Keywords:        keywords,
		AppsPerKeyword:  res.PerKeyword,
		TotalAppsSeen:   res.TotalCandidatesSeen,
		TotalDevelopers: res.Publishers.Len(),
		Errors:          errs,
	}
}

// Document is a rendered report ready to send.
type Document struct {
	ContentType string
	Body        []byte
}

// IsCSV reports whether the document should be sent as an attachment.
func (d Document) IsCSV() bool { return d.ContentType == ContentTypeCSV }

// Render produces the report for rows. With no rows the fallback decides the
// output; diag is only used by DiagnosticJSON.
func Render(rows []models.PublisherAggregate, fallback EmptyFallback, diag Diagnostics) (Document, error) {
	if len(rows) > 0 {
		return Document{ContentType: ContentTypeCSV, Body: CSV(rows)}, nil
	}

	switch fallback {
	case PlaceholderRows:
		return Document{ContentType: ContentTypeCSV, Body: CSV(Placeholders)}, nil
	case DiagnosticJSON:
		body, err := json.Marshal(diag)
		if err != nil {
			return Document{}, fmt.Errorf("report: diagnostic json: %w", err)
		}
		return Document{ContentType: ContentTypeJSON, Body: body}, nil
	default:
		return Document{ContentType: ContentTypeCSV, Body: CSV(nil)}, nil
	}
}
