package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/setu007/play-scraper-render/internal/pipeline"
	"github.com/setu007/play-scraper-render/internal/report"
	"github.com/setu007/play-scraper-render/internal/scraper"
	"github.com/setu007/play-scraper-render/pkg/database"
	"github.com/setu007/play-scraper-render/pkg/models"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.OpenArchive(database.Config{Path: filepath.Join(t.TempDir(), "reports.db")})
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(db)
}

func testRun(id string, started time.Time) models.ArchivedRun {
	return models.ArchivedRun{
		ID:             id,
		Keywords:       []string{"tools", "notes"},
		PerKeyword:     20,
		Filter:         "inactive",
		EmptyFallback:  "plain",
		CandidatesSeen: 40,
		Publishers:     12,
		Rows:           3,
		Errors:         []string{"com.x: not found"},
		ContentType:    report.ContentTypeCSV,
		Filename:       "inactive_devs.csv",
		StartedAt:      started,
		FinishedAt:     started.Add(time.Minute),
		Body:           []byte(`"developerId"`),
	}
}

func TestRepo_SaveListGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := repo.Save(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	total, err := repo.Count(ctx)
	if err != nil || total != 3 {
		t.Fatalf("Count = %d, %v", total, err)
	}

	list, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "run-c" || list[1].ID != "run-b" {
		t.Fatalf("List = %+v", list)
	}
	if list[0].Body != nil {
		t.Fatal("List should not load bodies")
	}

	got, err := repo.Get(ctx, "run-a")
	if err != nil || got == nil {
		t.Fatalf("Get: %v, %v", got, err)
	}
	want := testRun("run-a", base)
	if !reflect.DeepEqual(got.Keywords, want.Keywords) || !reflect.DeepEqual(got.Errors, want.Errors) {
		t.Fatalf("Get = %+v", got)
	}
	if string(got.Body) != string(want.Body) || !got.StartedAt.Equal(base) || got.Rows != 3 {
		t.Fatalf("Get = %+v", got)
	}

	missing, err := repo.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Get(nope) = %v, %v", missing, err)
	}

	if err := repo.Save(ctx, testRun("run-a", base)); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestRepo_CorruptColumnsAreReported(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	for _, tt := range []struct {
		id, column string
	}{
		{"bad-keywords", "keywords"},
		{"bad-errors", "errors"},
	} {
		if err := repo.Save(ctx, testRun(tt.id, base)); err != nil {
			t.Fatalf("Save(%s): %v", tt.id, err)
		}
		if _, err := repo.DB.Exec(`UPDATE runs SET `+tt.column+` = '{not json' WHERE id = ?`, tt.id); err != nil {
			t.Fatalf("corrupt %s: %v", tt.column, err)
		}

		got, err := repo.Get(ctx, tt.id)
		if err == nil || !strings.Contains(err.Error(), tt.column) {
			t.Fatalf("Get(%s) = %+v, %v; want decode error for %s", tt.id, got, err, tt.column)
		}
	}

	if _, err := repo.List(ctx, 10, 0); err == nil {
		t.Fatal("List should fail on a corrupt row")
	}
}

func TestFromOutcome(t *testing.T) {
	aggs := scraper.NewAggregates()
	aggs.Merge(models.AppMetadata{AppID: "a", PublisherID: "p"})
	out := &pipeline.Outcome{
		Result: &scraper.RunResult{
			ID: "run-1", Keywords: []string{"tools"}, PerKeyword: 5,
			Publishers: aggs, TotalCandidatesSeen: 5,
		},
		Filter:   scraper.All,
		Empty:    report.DiagnosticJSON,
		Rows:     aggs.All(),
		Document: report.Document{ContentType: report.ContentTypeCSV, Body: []byte("x")},
		Filename: "all_devs.csv",
	}

	run := FromOutcome(out)
	if run.Filter != "all" || run.EmptyFallback != "diagnostic" || run.Publishers != 1 || run.Rows != 1 {
		t.Fatalf("run = %+v", run)
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := openTestRepo(t)
	if err := repo.Save(context.Background(), testRun("run-a", time.Now().UTC())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/reports"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var page struct {
		Total int                  `json:"total"`
		Items []models.ArchivedRun `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil || page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("list body = %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/run-a", nil))
	if w.Code != http.StatusOK || w.Body.String() != `"developerId"` {
		t.Fatalf("get = %d %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="inactive_devs.csv"` {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", w.Code)
	}
}
