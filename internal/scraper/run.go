package scraper

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/setu007/play-scraper-render/pkg/models"
)

// Event types sent to an Observer while a run progresses.
const (
	EventRunStarted      = "run.started"
	EventKeywordStarted  = "keyword.started"
	EventKeywordFinished = "keyword.finished"
	EventAppFailed       = "app.failed"
	EventRunFinished     = "run.finished"
)

type Event struct {
	Type    string    `json:"type"`
	RunID   string    `json:"run_id"`
	Keyword string    `json:"keyword,omitempty"`
	AppID   string    `json:"app_id,omitempty"`
	Count   int       `json:"count,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Observer receives run progress. Implementations must not block for long;
// they are called inline between upstream calls.
type Observer interface {
	Observe(Event)
}

// CandidateSource is the AppSource contract: it never fails.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, keyword string, limit int) []models.AppCandidate
}

// RunResult is everything one run produced. It is not shared across runs.
type RunResult struct {
	ID                  string
	Keywords            []string
	PerKeyword          int
	Publishers          *Aggregates
	Errors              []string
	TotalCandidatesSeen int
	StartedAt           time.Time
	FinishedAt          time.Time
}

// Runner drives keywords through source, resolver and aggregator, one
// upstream call at a time.
type Runner struct {
	Source   CandidateSource
	Resolver Resolver
	Observer Observer
	Logger   *log.Logger
}

func NewRunner(src CandidateSource, res Resolver) *Runner {
	return &Runner{Source: src, Resolver: res, Logger: log.Default()}
}

// Run processes keywords in order and each keyword's candidates in order.
// Resolution failures are recorded in Errors and never stop the run. An app
// already resolved earlier in the run is skipped so it is counted once.
//
// If ctx is cancelled, Run stops before the next upstream call and returns
// the partial result together with ctx.Err().
func (r *Runner) Run(ctx context.Context, keywords []string, per int) (*RunResult, error) {
	res := &RunResult{
		ID:         uuid.NewString(),
		Keywords:   keywords,
		PerKeyword: per,
		Publishers: NewAggregates(),
		StartedAt:  time.Now().UTC(),
	}
	r.emit(Event{Type: EventRunStarted, RunID: res.ID, Count: len(keywords)})
	r.logf("[scraper] run %s: %d keywords, %d per keyword", res.ID, len(keywords), per)

	seen := make(map[string]struct{})

	for _, kw := range keywords {
		if err := ctx.Err(); err != nil {
			return r.finish(res), err
		}

		r.emit(Event{Type: EventKeywordStarted, RunID: res.ID, Keyword: kw})
		cands := r.Source.FetchCandidates(ctx, kw, per)
		res.TotalCandidatesSeen += len(cands)

		resolved := 0
		for _, c := range cands {
			if err := ctx.Err(); err != nil {
				return r.finish(res), err
			}
			if c.ID == "" {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}

			meta, err := r.Resolver.Resolve(ctx, c.ID)
			if err != nil {
				var rerr *ResolutionError
				if !errors.As(err, &rerr) || rerr.Err == nil {
					rerr = &ResolutionError{AppID: c.ID, Err: err}
				}
				msg := c.ID + ": " + rerr.Err.Error()
				res.Errors = append(res.Errors, msg)
				r.emit(Event{Type: EventAppFailed, RunID: res.ID, Keyword: kw, AppID: c.ID, Message: msg})
				continue
			}
			res.Publishers.Merge(meta)
			resolved++
		}

		r.emit(Event{Type: EventKeywordFinished, RunID: res.ID, Keyword: kw, Count: resolved})
		r.logf("[scraper] keyword %q: %d candidates, %d resolved", kw, len(cands), resolved)
	}

	return r.finish(res), nil
}

func (r *Runner) finish(res *RunResult) *RunResult {
	res.FinishedAt = time.Now().UTC()
	r.emit(Event{
		Type:    EventRunFinished,
		RunID:   res.ID,
		Count:   res.Publishers.Len(),
		Message: errorSummary(len(res.Errors)),
	})
	r.logf("[scraper] run %s finished: %d candidates, %d publishers, %d errors",
		res.ID, res.TotalCandidatesSeen, res.Publishers.Len(), len(res.Errors))
	return res
}

func (r *Runner) emit(ev Event) {
	if r.Observer == nil {
		return
	}
	ev.At = time.Now().UTC()
	r.Observer.Observe(ev)
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

func errorSummary(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "1 error"
	default:
		return strconv.Itoa(n) + " errors"
	}
}
