package models

// AppCandidate is an app identifier surfaced by a keyword query that has not
// been resolved to metadata yet.
type AppCandidate struct {
	ID string `json:"id"`
}

// AppMetadata is the normalized form of a catalog app record.
//
// Every upstream shape (JSON API, scraped page) is mapped into this structure
// before it reaches the aggregator.
type AppMetadata struct {
	AppID         string `json:"app_id"`
	PublisherID   string `json:"publisher_id"`   // never empty, see scraper.Normalize
	PublisherName string `json:"publisher_name"` // display name, may be empty
	Title         string `json:"title"`
	LastUpdated   int64  `json:"last_updated"` // unix ms, 0 = unknown
}

// SampleApp is one entry of a publisher's bounded title sample.
type SampleApp struct {
	AppID string `json:"app_id"`
	Title string `json:"title"`
}

// PublisherAggregate accumulates every app seen for one publisher during a run.
type PublisherAggregate struct {
	PublisherID      string      `json:"publisher_id"`
	Name             string      `json:"name"`
	AppCount         int         `json:"app_count"`
	MostRecentUpdate int64       `json:"most_recent_update"` // unix ms, 0 = never seen
	SampleTitles     []SampleApp `json:"sample_titles"`
}
