package scraper

import (
	"context"
	"fmt"
	"log"

	"github.com/setu007/play-scraper-render/pkg/models"
)

// DefaultSeed is the last-resort candidate list, used when every strategy
// fails, so a run always has something to resolve.
var DefaultSeed = []string{
	"com.whatsapp",
	"com.facebook.katana",
	"com.instagram.android",
	"com.google.android.apps.maps",
	"com.mxtech.videoplayer.ad",
}

// Strategy is one way of turning a keyword into candidates. An error or an
// empty result means "try the next strategy".
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, keyword string, limit int) ([]models.AppCandidate, error)
}

// Chain tries its strategies in order and returns the first non-empty result,
// truncated to the limit. Each strategy is attempted at most once per call.
type Chain struct {
	Strategies []Strategy
	Seed       []string
	Logger     *log.Logger
}

func NewChain(seed []string, strategies ...Strategy) *Chain {
	if seed == nil {
		seed = DefaultSeed
	}
	return &Chain{Strategies: strategies, Seed: seed, Logger: log.Default()}
}

// FetchCandidates never fails: strategy errors are logged and swallowed, and
// the static seed is the final fallback. A cancelled context yields nil.
func (c *Chain) FetchCandidates(ctx context.Context, keyword string, limit int) []models.AppCandidate {
	if limit <= 0 {
		return nil
	}

	for _, s := range c.Strategies {
		if ctx.Err() != nil {
			return nil
		}
		cands, err := c.attempt(ctx, s, keyword, limit)
		if err != nil {
			c.logf("[source] %v", err)
			continue
		}
		return cands
	}

	if ctx.Err() != nil {
		return nil
	}
	c.logf("[source] all strategies failed for %q, using static seed", keyword)
	return seedCandidates(c.Seed, limit)
}

func (c *Chain) attempt(ctx context.Context, s Strategy, keyword string, limit int) (cands []models.AppCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands = nil
			err = &SourceUnavailable{Strategy: s.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	cands, err = s.Candidates(ctx, keyword, limit)
	if err != nil {
		return nil, &SourceUnavailable{Strategy: s.Name(), Err: err}
	}
	if len(cands) == 0 {
		return nil, &SourceUnavailable{Strategy: s.Name()}
	}
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

func (c *Chain) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

func seedCandidates(seed []string, limit int) []models.AppCandidate {
	if len(seed) > limit {
		seed = seed[:limit]
	}
	out := make([]models.AppCandidate, 0, len(seed))
	for _, id := range seed {
		out = append(out, models.AppCandidate{ID: id})
	}
	return out
}
