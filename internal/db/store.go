package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nocparse/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertReport(ctx context.Context, r models.Report) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO reports (id, filename, period_start, period_end, pages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.Filename, r.PeriodStart, r.PeriodEnd, r.Pages, r.CreatedAt)
	return err
}

func (s *Store) GetReport(ctx context.Context, id string) (models.Report, error) {
	var r models.Report
	err := s.Pool.QueryRow(ctx, `
		SELECT id, filename, period_start, period_end, pages, created_at
		FROM reports WHERE id = $1`, id).
		Scan(&r.ID, &r.Filename, &r.PeriodStart, &r.PeriodEnd, &r.Pages, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Report{}, ErrNotFound
	}
	return r, err
}

func (s *Store) InsertRun(ctx context.Context, tx pgx.Tx, run models.Run) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO runs (id, report_id, started_at, finished_at, status, summary)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.ReportID, run.StartedAt, run.FinishedAt, run.Status, run.Summary)
	return err
}

// InsertCategories persists a run's ranked categories and findings. Findings
// go in bulk via CopyFrom; positions record the ranked order so reads return
// rows exactly as the ranker emitted them.
func (s *Store) InsertCategories(ctx context.Context, tx pgx.Tx, runID string, cats []models.Category) error {
	findingRows := make([][]any, 0, 64)
	for pos, cat := range cats {
		_, err := tx.Exec(ctx, `
			INSERT INTO run_categories (run_id, position, name, total_findings, business_impacted, business_pct)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, pos, cat.Name, cat.TotalFindings, cat.BusinessImpacted, cat.BusinessPct)
		if err != nil {
			return err
		}
		for i, f := range cat.Findings {
			findingRows = append(findingRows, []any{
				runID, cat.Name, i,
				f.Site, f.Device, f.Interface, f.Occurrences, f.LastOccurred,
				f.Trend, f.AvgDurationMin, f.ErrorType, f.ImpactedClients,
				string(f.BusinessImpact), f.Timezone, f.LocalTime, f.ImpactReason,
				f.Provenance.Page, f.Provenance.LineIndex, f.Provenance.Snippet,
			})
		}
	}
	if len(findingRows) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"findings"},
		[]string{
			"run_id", "category", "position",
			"site", "device", "interface", "occurrences", "last_occurred",
			"trend", "avg_duration_min", "error_type", "impacted_clients",
			"business_impact", "timezone", "local_time", "impact_reason",
			"page", "line_index", "snippet",
		},
		pgx.CopyFromRows(findingRows))
	return err
}

func (s *Store) LatestRun(ctx context.Context) (models.Run, error) {
	var run models.Run
	err := s.Pool.QueryRow(ctx, `
		SELECT id, report_id, started_at, finished_at, status, summary
		FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&run.ID, &run.ReportID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, ErrNotFound
	}
	return run, err
}

func (s *Store) LatestRunForReport(ctx context.Context, reportID string) (models.Run, error) {
	var run models.Run
	err := s.Pool.QueryRow(ctx, `
		SELECT id, report_id, started_at, finished_at, status, summary
		FROM runs WHERE report_id = $1 ORDER BY started_at DESC LIMIT 1`, reportID).
		Scan(&run.ID, &run.ReportID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, ErrNotFound
	}
	return run, err
}

// ListCategories returns the untruncated ranked categories of a run.
func (s *Store) ListCategories(ctx context.Context, runID string) ([]models.Category, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT name, total_findings, business_impacted, business_pct
		FROM run_categories WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name, &c.TotalFindings, &c.BusinessImpacted, &c.BusinessPct); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cats {
		findings, err := s.listFindings(ctx, runID, cats[i].Name)
		if err != nil {
			return nil, err
		}
		cats[i].Findings = findings
	}
	return cats, nil
}

func (s *Store) listFindings(ctx context.Context, runID, category string) ([]models.Finding, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT site, device, interface, occurrences, last_occurred,
		       trend, avg_duration_min, error_type, impacted_clients,
		       business_impact, timezone, local_time, impact_reason,
		       page, line_index, snippet
		FROM findings WHERE run_id = $1 AND category = $2 ORDER BY position`,
		runID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Finding
	for rows.Next() {
		var f models.Finding
		var impact string
		if err := rows.Scan(&f.Site, &f.Device, &f.Interface, &f.Occurrences, &f.LastOccurred,
			&f.Trend, &f.AvgDurationMin, &f.ErrorType, &f.ImpactedClients,
			&impact, &f.Timezone, &f.LocalTime, &f.ImpactReason,
			&f.Provenance.Page, &f.Provenance.LineIndex, &f.Provenance.Snippet); err != nil {
			return nil, err
		}
		f.BusinessImpact = models.BusinessImpact(impact)
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetAirport and PutAirport implement the persistent side of the airport
// timezone cache (tz.AirportCache).
func (s *Store) GetAirport(ctx context.Context, code string) (models.SiteLocation, bool, error) {
	var loc models.SiteLocation
	err := s.Pool.QueryRow(ctx, `
		SELECT code, city, country, timezone FROM airport_timezones WHERE code = $1`, code).
		Scan(&loc.Identifier, &loc.City, &loc.Country, &loc.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SiteLocation{}, false, nil
	}
	if err != nil {
		return models.SiteLocation{}, false, err
	}
	return loc, true, nil
}

func (s *Store) PutAirport(ctx context.Context, loc models.SiteLocation) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO airport_timezones (code, city, country, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET city = $2, country = $3, timezone = $4`,
		loc.Identifier, loc.City, loc.Country, loc.Timezone)
	return err
}
