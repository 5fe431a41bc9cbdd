// Package pipeline assembles the scraper, classifier and report stages from
// configuration and runs them as one unit for the HTTP handler and the CLI.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/setu007/play-scraper-render/internal/playstore"
	"github.com/setu007/play-scraper-render/internal/report"
	"github.com/setu007/play-scraper-render/internal/scraper"
	"github.com/setu007/play-scraper-render/pkg/models"
	"github.com/setu007/play-scraper-render/pkg/utils"
)

// DefaultKeywords is used when a request carries no usable keyword.
const DefaultKeywords = "tools,productivity,education"

// Pipeline holds everything a run needs. It keeps no state between runs.
type Pipeline struct {
	Runner     *scraper.Runner
	Classifier scraper.Classifier
	Filter     scraper.FilterPolicy
	Empty      report.EmptyFallback
	Bounds     utils.Bounds
	Filename   string
	Logger     *log.Logger
}

// Request is one run as asked for by a caller. Zero Filter/Empty strings use
// the configured defaults.
type Request struct {
	Keywords []string
	Per      int
	Filter   string
	Empty    string
}

// Outcome is what a run produced, ready to be sent or saved.
type Outcome struct {
	Result   *scraper.RunResult
	Filter   scraper.FilterPolicy
	Empty    report.EmptyFallback
	Rows     []models.PublisherAggregate
	Document report.Document
	Filename string
}

// New builds the upstream clients, the strategy chain and the resolver for
// the configured source mode.
func New(cfg utils.Config, logger *log.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = log.Default()
	}

	filter, err := scraper.ParseFilterPolicy(cfg.Report.Filter)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	empty, err := report.ParseEmptyFallback(cfg.Report.EmptyFallback)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	client := playstore.NewClient(playstore.Options{
		Timeout:        cfg.Upstream.Timeout,
		Retries:        cfg.Upstream.Retries,
		BackoffInitial: cfg.Upstream.BackoffInitial,
		BackoffMax:     cfg.Upstream.BackoffMax,
		RatePerSecond:  cfg.Upstream.RatePerSecond,
		UserAgent:      cfg.Upstream.UserAgent,
	})

	api := playstore.NewAPIClient(cfg.Source.APIBaseURL, client)
	api.Country, api.Lang = cfg.Source.Country, cfg.Source.Lang
	pages := playstore.NewPageClient(cfg.Source.PageBaseURL, client)
	pages.Country, pages.Lang = cfg.Source.Country, cfg.Source.Lang

	strategies := make([]scraper.Strategy, 0, len(cfg.Source.Strategies))
	for _, name := range cfg.Source.Strategies {
		s, err := strategyFor(name, cfg.Source, api, pages, client)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		strategies = append(strategies, s)
	}

	chain := scraper.NewChain(cfg.Source.Seed, strategies...)
	chain.Logger = logger

	var resolver scraper.Resolver = &scraper.APIResolver{API: api}
	if cfg.Source.Mode == utils.ModeScrape {
		resolver = &scraper.PageResolver{Pages: pages}
	}

	runner := scraper.NewRunner(chain, resolver)
	runner.Logger = logger

	classifier := scraper.NewClassifier()
	classifier.MaxApps = cfg.Classifier.MaxApps
	classifier.Window = cfg.ClassifierWindow()

	return &Pipeline{
		Runner:     runner,
		Classifier: classifier,
		Filter:     filter,
		Empty:      empty,
		Bounds:     cfg.PerBounds(),
		Filename:   cfg.Report.Filename,
		Logger:     logger,
	}, nil
}

func strategyFor(name string, src utils.SourceConfig, api *playstore.APIClient, pages *playstore.PageClient, client *playstore.Client) (scraper.Strategy, error) {
	scrape := src.Mode == utils.ModeScrape
	switch name {
	case "list":
		if scrape {
			return &scraper.PageList{Pages: pages, Category: src.Category}, nil
		}
		return &scraper.APIList{API: api, Collection: src.Collection, Category: src.Category}, nil
	case "search":
		if scrape {
			return &scraper.PageSearch{Pages: pages}, nil
		}
		return &scraper.APISearch{API: api}, nil
	case "feed":
		return &scraper.FeedList{Feeds: playstore.NewFeedClient(client), URL: src.FeedURL}, nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %q", name)
	}
}

// ParseKeywords splits a comma separated list, trimming blanks. An empty
// result falls back to DefaultKeywords.
func ParseKeywords(raw string) []string {
	out := splitKeywords(raw)
	if len(out) == 0 {
		out = splitKeywords(DefaultKeywords)
	}
	return out
}

func splitKeywords(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Execute runs the pipeline end to end. Per-app failures end up in
// Outcome.Result.Errors; only a cancelled context or a render failure is
// returned as an error, the latter as *scraper.RunFailure.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Outcome, error) {
	filter := p.Filter
	if req.Filter != "" {
		f, err := scraper.ParseFilterPolicy(req.Filter)
		if err != nil {
			return nil, err
		}
		filter = f
	}
	empty := p.Empty
	if req.Empty != "" {
		e, err := report.ParseEmptyFallback(req.Empty)
		if err != nil {
			return nil, err
		}
		empty = e
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = ParseKeywords("")
	}
	per := req.Per
	if per <= 0 {
		per = p.Bounds.Default
	}
	if per > p.Bounds.Max {
		per = p.Bounds.Max
	}

	res, err := p.Runner.Run(ctx, keywords, per)
	if err != nil {
		return nil, err
	}

	rows := p.Classifier.Select(res.Publishers, filter)
	doc, err := report.Render(rows, empty, report.NewDiagnostics(res, filter))
	if err != nil {
		return nil, &scraper.RunFailure{Stage: "render", Err: err}
	}

	return &Outcome{
		Result:   res,
		Filter:   filter,
		Empty:    empty,
		Rows:     rows,
		Document: doc,
		Filename: p.filename(filter),
	}, nil
}

func (p *Pipeline) filename(filter scraper.FilterPolicy) string {
	if p.Filename != "" {
		return p.Filename
	}
	if filter == scraper.All {
		return "all_devs.csv"
	}
	return "inactive_devs.csv"
}
