package models

import "time"

// ArchivedRun is a finished run as kept in the report archive. Body holds the
// rendered report and is only loaded when a single run is fetched.
type ArchivedRun struct {
	ID             string    `json:"id"`
	Keywords       []string  `json:"keywords"`
	PerKeyword     int       `json:"per_keyword"`
	Filter         string    `json:"filter"`
	EmptyFallback  string    `json:"empty_fallback"`
	CandidatesSeen int       `json:"candidates_seen"`
	Publishers     int       `json:"publishers"`
	Rows           int       `json:"rows"`
	Errors         []string  `json:"errors"`
	ContentType    string    `json:"content_type"`
	Filename       string    `json:"filename"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Body           []byte    `json:"-"`
}
