package scraper

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/setu007/play-scraper-render/pkg/models"
)

type staticSource map[string][]string

func (s staticSource) FetchCandidates(_ context.Context, keyword string, limit int) []models.AppCandidate {
	got := s[keyword]
	if len(got) > limit {
		got = got[:limit]
	}
	return candidatesFromIDs(got)
}

type mapResolver struct {
	apps  map[string]models.AppMetadata
	calls []string
}

func (r *mapResolver) Resolve(_ context.Context, appID string) (models.AppMetadata, error) {
	r.calls = append(r.calls, appID)
	m, ok := r.apps[appID]
	if !ok {
		return models.AppMetadata{}, &ResolutionError{AppID: appID, Err: errors.New("not found")}
	}
	return m, nil
}

type recordingObserver struct{ types []string }

func (o *recordingObserver) Observe(ev Event) { o.types = append(o.types, ev.Type) }

func quietRunner(src CandidateSource, res Resolver) *Runner {
	r := NewRunner(src, res)
	r.Logger = log.New(io.Discard, "", 0)
	return r
}

func TestRunner_EndToEndSinglePublisher(t *testing.T) {
	yearsAgo := func(n int) int64 { return fixedNow.AddDate(-n, 0, 0).UnixMilli() }
	res := &mapResolver{apps: map[string]models.AppMetadata{
		"com.t.one":   {AppID: "com.t.one", PublisherID: "toolsmith", PublisherName: "Toolsmith", Title: "One", LastUpdated: yearsAgo(3)},
		"com.t.two":   {AppID: "com.t.two", PublisherID: "toolsmith", PublisherName: "Toolsmith", Title: "Two", LastUpdated: yearsAgo(1)},
		"com.t.three": {AppID: "com.t.three", PublisherID: "toolsmith", PublisherName: "Toolsmith", Title: "Three", LastUpdated: yearsAgo(4)},
	}}
	src := staticSource{"tools": {"com.t.one", "com.t.two", "com.t.three", "com.t.four"}}

	result, err := quietRunner(src, res).Run(context.Background(), []string{"tools"}, 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ID == "" {
		t.Fatal("run id not set")
	}
	if result.TotalCandidatesSeen != 3 || len(result.Errors) != 0 {
		t.Fatalf("seen=%d errors=%v", result.TotalCandidatesSeen, result.Errors)
	}

	p, ok := result.Publishers.Get("toolsmith")
	if !ok {
		t.Fatal("toolsmith missing")
	}
	if p.AppCount != 3 || p.MostRecentUpdate != yearsAgo(1) {
		t.Fatalf("aggregate = %+v", p)
	}

	if got := testClassifier().Select(result.Publishers, InactiveOnly); len(got) != 0 {
		t.Fatalf("recently updated publisher should be excluded, got %+v", got)
	}
	if got := testClassifier().Select(result.Publishers, All); len(got) != 1 {
		t.Fatalf("All should keep the publisher, got %+v", got)
	}
}

func TestRunner_AllResolutionsFail(t *testing.T) {
	failing := &fakeStrategy{name: "list", err: errors.New("down")}
	src := quietChain(nil, failing)
	res := &mapResolver{}

	result, err := quietRunner(src, res).Run(context.Background(), []string{"zz_nonexistent_kw_xyz"}, 5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Errors) == 0 || len(result.Errors) > 5 {
		t.Fatalf("errors = %d, want 1..5", len(result.Errors))
	}
	if result.Publishers.Len() != 0 {
		t.Fatalf("publishers = %d, want 0", result.Publishers.Len())
	}
	if !strings.HasPrefix(result.Errors[0], DefaultSeed[0]+": ") {
		t.Fatalf("error %q should start with the app id", result.Errors[0])
	}
}

func TestRunner_ResolvesEachAppOnce(t *testing.T) {
	res := &mapResolver{apps: map[string]models.AppMetadata{
		"a": {AppID: "a", PublisherID: "p"},
		"b": {AppID: "b", PublisherID: "p"},
	}}
	src := staticSource{"k1": {"a", "b"}, "k2": {"b", "a"}}

	result, err := quietRunner(src, res).Run(context.Background(), []string{"k1", "k2"}, 5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(res.calls, []string{"a", "b"}) {
		t.Fatalf("resolver calls = %v", res.calls)
	}
	if result.TotalCandidatesSeen != 4 {
		t.Fatalf("TotalCandidatesSeen = %d, want 4", result.TotalCandidatesSeen)
	}
	if p, _ := result.Publishers.Get("p"); p.AppCount != 2 {
		t.Fatalf("AppCount = %d, want 2", p.AppCount)
	}
}

func TestRunner_EmitsEvents(t *testing.T) {
	res := &mapResolver{apps: map[string]models.AppMetadata{"a": {AppID: "a", PublisherID: "p"}}}
	obs := &recordingObserver{}
	r := quietRunner(staticSource{"k": {"a", "missing"}}, res)
	r.Observer = obs

	if _, err := r.Run(context.Background(), []string{"k"}, 5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{EventRunStarted, EventKeywordStarted, EventAppFailed, EventKeywordFinished, EventRunFinished}
	if !reflect.DeepEqual(obs.types, want) {
		t.Fatalf("events = %v, want %v", obs.types, want)
	}
}

type cancellingResolver struct {
	cancel context.CancelFunc
	calls  int
}

func (r *cancellingResolver) Resolve(_ context.Context, appID string) (models.AppMetadata, error) {
	r.calls++
	r.cancel()
	return models.AppMetadata{AppID: appID, PublisherID: "p"}, nil
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := &cancellingResolver{cancel: cancel}
	src := staticSource{"k1": {"a", "b", "c"}, "k2": {"d"}}

	result, err := quietRunner(src, res).Run(ctx, []string{"k1", "k2"}, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.calls != 1 {
		t.Fatalf("resolver calls = %d, want 1", res.calls)
	}
	if result == nil || result.Publishers.Len() != 1 || result.FinishedAt.IsZero() {
		t.Fatalf("partial result = %+v", result)
	}
}
