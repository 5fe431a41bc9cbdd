package runs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/setu007/play-scraper-render/internal/archive"
	"github.com/setu007/play-scraper-render/internal/pipeline"
	"github.com/setu007/play-scraper-render/internal/report"
	"github.com/setu007/play-scraper-render/internal/scraper"
	"github.com/setu007/play-scraper-render/pkg/models"
	"github.com/setu007/play-scraper-render/pkg/utils"
)

// Executor runs one report request. *pipeline.Pipeline implements it.
type Executor interface {
	Execute(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// Archiver stores a finished run. A nil Archiver disables archiving.
type Archiver interface {
	Save(ctx context.Context, run models.ArchivedRun) error
}

type Handler struct {
	Pipeline Executor
	Bounds   utils.Bounds
	Archive  Archiver
	Logger   *log.Logger
}

func NewHandler(p Executor, bounds utils.Bounds) *Handler {
	return &Handler{Pipeline: p, Bounds: bounds, Logger: log.Default()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	rg.GET("/run", append(mw, h.run)...) // GET /run
}

func (h *Handler) run(c *gin.Context) {
	filter := c.Query("filter")
	if filter != "" {
		if _, err := scraper.ParseFilterPolicy(filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	empty := c.Query("empty")
	if empty != "" {
		if _, err := report.ParseEmptyFallback(empty); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	req := pipeline.Request{
		Keywords: pipeline.ParseKeywords(c.Query("keywords")),
		Per:      h.Bounds.Clamp(c.Query("per")),
		Filter:   filter,
		Empty:    empty,
	}

	out, err := h.Pipeline.Execute(c.Request.Context(), req)
	if err != nil {
		h.logf("[api] run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}

	if h.Archive != nil {
		if err := h.Archive.Save(c.Request.Context(), archive.FromOutcome(out)); err != nil {
			h.logf("[api] archive run %s: %v", out.Result.ID, err)
		}
	}

	c.Header("X-Run-Id", out.Result.ID)
	if out.Document.IsCSV() {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	}
	c.Data(http.StatusOK, out.Document.ContentType, out.Document.Body)
}

func failureMessage(err error) string {
	var rf *scraper.RunFailure
	if errors.As(err, &rf) {
		return rf.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "run cancelled: " + err.Error()
	}
	return err.Error()
}

func (h *Handler) logf(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf(format, args...)
	}
}
