package pipeline

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/setu007/play-scraper-render/internal/report"
	"github.com/setu007/play-scraper-render/internal/scraper"
	"github.com/setu007/play-scraper-render/pkg/utils"
)

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/apps":
			if r.URL.Query().Get("collection") != "" {
				_, _ = w.Write([]byte(`[{"appId":"com.old.one"},{"appId":"com.fresh.one"},{"appId":"com.old.two"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case "/api/apps/com.old.one":
			_, _ = w.Write([]byte(`{"title":"Old One","developerId":"old","developer":"Old Dev","updated":"2015-01-10"}`))
		case "/api/apps/com.old.two":
			_, _ = w.Write([]byte(`{"title":"Old Two","developerId":"old","developer":"Old Dev","updated":"2016-02-10"}`))
		case "/api/apps/com.fresh.one":
			_, _ = w.Write([]byte(`{"title":"Fresh","developerId":"fresh","developer":"Fresh Dev","updated":"2024-05-01"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func testConfig(baseURL string) utils.Config {
	cfg := utils.Default()
	cfg.Source.APIBaseURL = baseURL
	cfg.Upstream.RatePerSecond = 0
	cfg.Upstream.Timeout = 2 * time.Second
	cfg.Upstream.BackoffInitial = time.Millisecond
	cfg.Upstream.BackoffMax = time.Millisecond
	return cfg
}

func newTestPipeline(t *testing.T, cfg utils.Config) *Pipeline {
	t.Helper()
	p, err := New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p.Classifier.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestExecute_InactiveReport(t *testing.T) {
	server := catalogServer(t)
	defer server.Close()

	p := newTestPipeline(t, testConfig(server.URL))
	out, err := p.Execute(context.Background(), Request{Keywords: []string{"tools"}, Per: 10})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if out.Filename != "inactive_devs.csv" || !out.Document.IsCSV() {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Rows) != 1 || out.Rows[0].PublisherID != "old" || out.Rows[0].AppCount != 2 {
		t.Fatalf("rows = %+v", out.Rows)
	}
	body := string(out.Document.Body)
	if !strings.Contains(body, `"old","Old Dev","2","2016-02-10","Old One (com.old.one) | Old Two (com.old.two)"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestExecute_RequestOverrides(t *testing.T) {
	server := catalogServer(t)
	defer server.Close()

	p := newTestPipeline(t, testConfig(server.URL))
	out, err := p.Execute(context.Background(), Request{Keywords: []string{"tools"}, Per: 10, Filter: "all"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Filename != "all_devs.csv" || len(out.Rows) != 2 {
		t.Fatalf("outcome = %+v", out)
	}

	if _, err := p.Execute(context.Background(), Request{Filter: "bogus"}); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestExecute_ErrorEnvelopeIsNotAPublisher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/apps" {
			_, _ = w.Write([]byte(`[{"appId":"com.a"},{"appId":"com.b"},{"appId":"com.c"}]`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer server.Close()

	p := newTestPipeline(t, testConfig(server.URL))
	out, err := p.Execute(context.Background(), Request{Keywords: []string{"tools"}, Per: 10})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(out.Rows) != 0 || out.Result.Publishers.Len() != 0 {
		t.Fatalf("rows = %+v", out.Rows)
	}
	want := []string{
		"com.a: unusable metadata",
		"com.b: unusable metadata",
		"com.c: unusable metadata",
	}
	if !reflect.DeepEqual(out.Result.Errors, want) {
		t.Fatalf("errors = %q, want %q", out.Result.Errors, want)
	}
}

func TestExecute_EmptyDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Report.EmptyFallback = "diagnostic"
	p := newTestPipeline(t, cfg)

	out, err := p.Execute(context.Background(), Request{Keywords: []string{"zz_nonexistent_kw_xyz"}, Per: 5})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Document.ContentType != report.ContentTypeJSON {
		t.Fatalf("content type = %q", out.Document.ContentType)
	}
	if n := len(out.Result.Errors); n == 0 || n > 5 {
		t.Fatalf("errors = %d", n)
	}
}

func TestNew_ScrapeModeUsesPages(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Source.Mode = utils.ModeScrape
	p := newTestPipeline(t, cfg)

	if _, ok := p.Runner.Resolver.(*scraper.PageResolver); !ok {
		t.Fatalf("resolver = %T, want *scraper.PageResolver", p.Runner.Resolver)
	}
	chain := p.Runner.Source.(*scraper.Chain)
	if _, ok := chain.Strategies[0].(*scraper.PageList); !ok {
		t.Fatalf("first strategy = %T", chain.Strategies[0])
	}
	if p.Bounds != cfg.Source.PageLimits {
		t.Fatalf("bounds = %+v", p.Bounds)
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"tools, games ,,notes", []string{"tools", "games", "notes"}},
		{" , ", []string{"tools", "productivity", "education"}},
		{"", []string{"tools", "productivity", "education"}},
	}
	for _, tt := range tests {
		if got := ParseKeywords(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParseKeywords(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
