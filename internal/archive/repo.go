package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/setu007/play-scraper-render/internal/pipeline"
	"github.com/setu007/play-scraper-render/pkg/models"
)

// Repo stores finished runs. Nothing in the scraping pipeline reads it back;
// every run still starts from an empty aggregate.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// FromOutcome flattens a pipeline outcome into an archive record.
func FromOutcome(out *pipeline.Outcome) models.ArchivedRun {
	res := out.Result
	return models.ArchivedRun{
		ID:             res.ID,
		Keywords:       res.Keywords,
		PerKeyword:     res.PerKeyword,
		Filter:         out.Filter.String(),
		EmptyFallback:  out.Empty.String(),
		CandidatesSeen: res.TotalCandidatesSeen,
		Publishers:     res.Publishers.Len(),
		Rows:           len(out.Rows),
		Errors:         res.Errors,
		ContentType:    out.Document.ContentType,
		Filename:       out.Filename,
		StartedAt:      res.StartedAt,
		FinishedAt:     res.FinishedAt,
		Body:           out.Document.Body,
	}
}

func (r *Repo) Save(ctx context.Context, run models.ArchivedRun) error {
	keywords, err := json.Marshal(nonNil(run.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords for %s: %w", run.ID, err)
	}
	errs, err := json.Marshal(nonNil(run.Errors))
	if err != nil {
		return fmt.Errorf("marshal errors for %s: %w", run.ID, err)
	}
	body := run.Body
	if body == nil {
		body = []byte{}
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO runs (id, keywords, per_keyword, filter_policy, empty_fallback,
			candidates_seen, publishers, row_count, errors, content_type, filename,
			body, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, string(keywords), run.PerKeyword, run.Filter, run.EmptyFallback,
		run.CandidatesSeen, run.Publishers, run.Rows, string(errs), run.ContentType, run.Filename,
		body, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return total, nil
}

// List returns runs newest first, without their bodies.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.ArchivedRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, keywords, per_keyword, filter_policy, empty_fallback,
			candidates_seen, publishers, row_count, errors, content_type, filename,
			started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchivedRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Get returns one run including its body, or nil if there is none.
func (r *Repo) Get(ctx context.Context, id string) (*models.ArchivedRun, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, keywords, per_keyword, filter_policy, empty_fallback,
			candidates_seen, publishers, row_count, errors, content_type, filename,
			started_at, finished_at, body
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row.Scan, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func scanRun(scan func(dest ...any) error, withBody bool) (models.ArchivedRun, error) {
	var (
		run          models.ArchivedRun
		keywordsJSON string
		errorsJSON   string
		started      time.Time
		finished     time.Time
	)
	dest := []any{
		&run.ID, &keywordsJSON, &run.PerKeyword, &run.Filter, &run.EmptyFallback,
		&run.CandidatesSeen, &run.Publishers, &run.Rows, &errorsJSON, &run.ContentType, &run.Filename,
		&started, &finished,
	}
	if withBody {
		dest = append(dest, &run.Body)
	}
	if err := scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}

	if err := json.Unmarshal([]byte(keywordsJSON), &run.Keywords); err != nil {
		return run, fmt.Errorf("decode keywords of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
		return run, fmt.Errorf("decode errors of run %s: %w", run.ID, err)
	}
	run.StartedAt = started.UTC()
	run.FinishedAt = finished.UTC()
	return run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
