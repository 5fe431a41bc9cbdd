package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/setu007/play-scraper-render/pkg/models"
)

// TwoYears is the default inactivity window.
const TwoYears = 2 * 365 * 24 * time.Hour

type FilterPolicy int

const (
	// InactiveOnly keeps publishers with few apps and no recent update.
	InactiveOnly FilterPolicy = iota
	// All keeps every publisher (debug output).
	All
)

func (p FilterPolicy) String() string {
	if p == All {
		return "all"
	}
	return "inactive"
}

// ParseFilterPolicy accepts the names used in config and query strings.
func ParseFilterPolicy(s string) (FilterPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inactive", "inactive-only", "inactive_only":
		return InactiveOnly, nil
	case "all", "debug", "show-all":
		return All, nil
	default:
		return InactiveOnly, fmt.Errorf("unsupported filter: %q (must be one of: inactive, all)", s)
	}
}

// Classifier decides which publishers belong in the report.
type Classifier struct {
	MaxApps int
	Window  time.Duration
	Now     func() time.Time
}

func NewClassifier() Classifier {
	return Classifier{MaxApps: 3, Window: TwoYears, Now: time.Now}
}

// IsInactive reports whether p has at most MaxApps apps and no update within
// Window of now. An unknown update time (0) counts as never updated.
func (c Classifier) IsInactive(p models.PublisherAggregate, now time.Time) bool {
	if p.AppCount > c.MaxApps {
		return false
	}
	if p.MostRecentUpdate == 0 {
		return true
	}
	return now.UnixMilli()-p.MostRecentUpdate > c.Window.Milliseconds()
}

// Select returns the aggregates that pass policy, in first-seen order.
func (c Classifier) Select(aggs *Aggregates, policy FilterPolicy) []models.PublisherAggregate {
	all := aggs.All()
	if policy == All {
		return all
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	out := make([]models.PublisherAggregate, 0, len(all))
	for _, p := range all {
		if c.IsInactive(p, now) {
			out = append(out, p)
		}
	}
	return out
}
