package scraper

import "fmt"

// SourceUnavailable reports that one candidate strategy failed or came back
// empty. It never leaves the Chain; the next strategy is tried instead.
type SourceUnavailable struct {
	Strategy string
	Err      error // nil when the strategy returned no candidates
}

func (e *SourceUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source %s: no candidates", e.Strategy)
	}
	return fmt.Sprintf("source %s: %v", e.Strategy, e.Err)
}

func (e *SourceUnavailable) Unwrap() error { return e.Err }

// ResolutionError reports that metadata for one app could not be fetched or
// was unusable. The runner records it and moves on to the next candidate.
type ResolutionError struct {
	AppID string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.AppID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// RunFailure is a fatal error outside the per-item boundaries, e.g. a report
// that cannot be rendered. It is surfaced to the caller as a 500.
type RunFailure struct {
	Stage string
	Err   error
}

func (e *RunFailure) Error() string {
	return fmt.Sprintf("run failed at %s: %v", e.Stage, e.Err)
}

func (e *RunFailure) Unwrap() error { return e.Err }
