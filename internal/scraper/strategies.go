package scraper

import (
	"context"

	"github.com/setu007/play-scraper-render/internal/playstore"
	"github.com/setu007/play-scraper-render/pkg/models"
)

// APIList reads a fixed collection/category listing from the catalog API.
// The keyword is ignored: the listing endpoint is keyword-agnostic and
// returns a generic popularity-ranked set.
type APIList struct {
	API        *playstore.APIClient
	Collection string
	Category   string
}

func (s *APIList) Name() string { return "api-list" }

func (s *APIList) Candidates(ctx context.Context, _ string, limit int) ([]models.AppCandidate, error) {
	recs, err := s.API.List(ctx, s.Collection, s.Category, limit)
	if err != nil {
		return nil, err
	}
	return candidatesFromRecords(recs), nil
}

// APISearch runs a keyword-scoped search against the catalog API.
type APISearch struct {
	API *playstore.APIClient
}

func (s *APISearch) Name() string { return "api-search" }

func (s *APISearch) Candidates(ctx context.Context, keyword string, limit int) ([]models.AppCandidate, error) {
	recs, err := s.API.Search(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}
	return candidatesFromRecords(recs), nil
}

// PageList scrapes a store category page. Like APIList it ignores the keyword.
type PageList struct {
	Pages    *playstore.PageClient
	Category string
}

func (s *PageList) Name() string { return "page-list" }

func (s *PageList) Candidates(ctx context.Context, _ string, limit int) ([]models.AppCandidate, error) {
	ids, err := s.Pages.CategoryIDs(ctx, s.Category, limit)
	if err != nil {
		return nil, err
	}
	return candidatesFromIDs(ids), nil
}

// PageSearch scrapes the store search results page for the keyword.
type PageSearch struct {
	Pages *playstore.PageClient
}

func (s *PageSearch) Name() string { return "page-search" }

func (s *PageSearch) Candidates(ctx context.Context, keyword string, limit int) ([]models.AppCandidate, error) {
	ids, err := s.Pages.SearchIDs(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}
	return candidatesFromIDs(ids), nil
}

// FeedList reads candidates from a listing feed. Keyword-agnostic.
type FeedList struct {
	Feeds *playstore.FeedClient
	URL   string
}

func (s *FeedList) Name() string { return "feed" }

func (s *FeedList) Candidates(ctx context.Context, _ string, limit int) ([]models.AppCandidate, error) {
	ids, err := s.Feeds.ListIDs(ctx, s.URL, limit)
	if err != nil {
		return nil, err
	}
	return candidatesFromIDs(ids), nil
}

// candidatesFromRecords picks the app id out of whichever field the API
// version uses. Records without one are skipped.
func candidatesFromRecords(recs []playstore.Record) []models.AppCandidate {
	out := make([]models.AppCandidate, 0, len(recs))
	for _, r := range recs {
		id := r.String("appId", "app_id", "app", "id")
		if id == "" {
			continue
		}
		out = append(out, models.AppCandidate{ID: id})
	}
	return out
}

func candidatesFromIDs(ids []string) []models.AppCandidate {
	out := make([]models.AppCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.AppCandidate{ID: id})
	}
	return out
}
