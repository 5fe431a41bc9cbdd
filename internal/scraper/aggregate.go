package scraper

import (
	"github.com/setu007/play-scraper-render/pkg/models"
)

// SampleCap bounds how many (appId, title) pairs a publisher keeps.
const SampleCap = 5

// Aggregates folds app metadata into one entry per publisher, remembering the
// order in which publishers were first seen. It is owned by a single run and
// is not safe for concurrent use.
type Aggregates struct {
	order []string
	byID  map[string]*models.PublisherAggregate
}

func NewAggregates() *Aggregates {
	return &Aggregates{byID: make(map[string]*models.PublisherAggregate)}
}

// Merge applies our accumulation rules for one resolved app:
//
// - A publisher seen for the first time starts at count 0, update 0, no samples,
// and keeps the display name of that first record.
// - Count is incremented.
// - The sample grows until SampleCap; later apps only count.
// - MostRecentUpdate keeps the maximum, so it never decreases.
func (a *Aggregates) Merge(m models.AppMetadata) *models.PublisherAggregate {
	p, ok := a.byID[m.PublisherID]
	if !ok {
		p = &models.PublisherAggregate{
			PublisherID: m.PublisherID,
			Name:        m.PublisherName,
		}
		a.byID[m.PublisherID] = p
		a.order = append(a.order, m.PublisherID)
	}

	p.AppCount++
	if len(p.SampleTitles) < SampleCap {
		p.SampleTitles = append(p.SampleTitles, models.SampleApp{AppID: m.AppID, Title: m.Title})
	}
	if m.LastUpdated > p.MostRecentUpdate {
		p.MostRecentUpdate = m.LastUpdated
	}
	return p
}

func (a *Aggregates) Len() int { return len(a.order) }

// Get returns a copy of the aggregate for publisherID.
func (a *Aggregates) Get(publisherID string) (models.PublisherAggregate, bool) {
	p, ok := a.byID[publisherID]
	if !ok {
		return models.PublisherAggregate{}, false
	}
	return clone(*p), true
}

// All returns copies of every aggregate in first-seen order.
func (a *Aggregates) All() []models.PublisherAggregate {
	out := make([]models.PublisherAggregate, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, clone(*a.byID[id]))
	}
	return out
}

func clone(p models.PublisherAggregate) models.PublisherAggregate {
	p.SampleTitles = append([]models.SampleApp(nil), p.SampleTitles...)
	return p
}
