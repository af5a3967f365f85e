package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/nocparse/backend/internal/ai"
	"github.com/nocparse/backend/internal/db"
	"github.com/nocparse/backend/internal/extract"
	"github.com/nocparse/backend/internal/guard"
	"github.com/nocparse/backend/internal/models"
	"github.com/nocparse/backend/internal/rank"
	"github.com/nocparse/backend/internal/temporal"
	"github.com/nocparse/backend/internal/tz"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type ProcessingService struct {
	Store    *db.Store
	AI       ai.Adapter
	Resolver tz.Resolver
	Policy   rank.Policy
	Hours    temporal.Window
	Logger   zerolog.Logger
}

type RunSummary struct {
	RunID      string            `json:"run_id"`
	ReportID   string            `json:"report_id"`
	Categories []models.Category `json:"categories"`
	Narrative  *ai.Narrative     `json:"narrative,omitempty"`
	Events     []map[string]any  `json:"events"`
	Counts     map[string]any    `json:"counts"`
	Samples    []map[string]any  `json:"samples,omitempty"`
}

// ProcessReport loads a stored report, runs the pipeline, and persists the
// run. The only hard failures are a missing report, a report with no pages,
// and the final persistence write.
func (s *ProcessingService) ProcessReport(ctx context.Context, reportID string, mode extract.Mode, debug bool) (RunSummary, error) {
	report, err := s.Store.GetReport(ctx, reportID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load report: %w", err)
	}
	return s.Process(ctx, report, mode, debug)
}

// Process runs the extraction pipeline over an in-memory report. Every stage
// degrades per-row and reports through counters rather than erroring out.
func (s *ProcessingService) Process(ctx context.Context, report models.Report, mode extract.Mode, debug bool) (RunSummary, error) {
	reportID := report.ID
	if len(report.Pages) == 0 {
		return RunSummary{}, fmt.Errorf("report %s has no pages", reportID)
	}

	start := time.Now()
	summary := RunSummary{
		RunID:    uuid.NewString(),
		ReportID: reportID,
		Counts:   map[string]any{},
	}

	pages := make([]models.Page, 0, len(report.Pages))
	for i, text := range report.Pages {
		pages = append(pages, models.Page{Number: i + 1, Text: text})
	}

	detector := extract.NewDetector(mode, s.Logger)
	tables := detector.Detect(pages)
	capturedRows := 0
	for _, t := range tables {
		capturedRows += len(t.Rows)
	}
	summary.Events = append(summary.Events, map[string]any{
		"type":          "table_detection",
		"tables":        len(tables),
		"rows_captured": capturedRows,
		"time":          time.Now().UTC(),
	})

	var (
		mapped    int
		mapFailed int
	)
	raw := make([]models.Category, 0, len(tables))
	for _, table := range tables {
		cat := models.Category{Name: table.Name}
		for _, line := range table.Rows {
			f := extract.MapRow(table.Kind, line)
			if f == nil {
				mapFailed++
				s.Logger.Debug().
					Str("category", table.Name).
					Int("page", line.Provenance.Page).
					Int("line", line.Provenance.LineIndex).
					Msg("row mapping failed")
				if debug && len(summary.Samples) < 5 {
					summary.Samples = append(summary.Samples, map[string]any{
						"reason":   "mapping_failure",
						"category": table.Name,
						"line":     line.Content,
					})
				}
				continue
			}
			mapped++
			cat.Findings = append(cat.Findings, *f)
		}
		cat.TotalFindings = len(cat.Findings)
		raw = append(raw, cat)
	}
	summary.Events = append(summary.Events, map[string]any{
		"type":   "row_mapping",
		"mapped": mapped,
		"failed": mapFailed,
		"time":   time.Now().UTC(),
	})

	merged := rank.Merge(raw)
	filtered, guardCounters := guard.Apply(merged, report.Window())
	summary.Events = append(summary.Events, map[string]any{
		"type":                  "guards",
		"kept":                  guardCounters.Kept,
		"dropped_zero":          guardCounters.DroppedZero,
		"dropped_period":        guardCounters.DroppedPeriod,
		"dropped_no_provenance": guardCounters.DroppedNoProvenance,
		"time":                  time.Now().UTC(),
	})

	classified, classifyStats := ClassifyImpact(ctx, filtered, s.Resolver, s.Hours, s.Logger)
	summary.Events = append(summary.Events, map[string]any{
		"type":         "business_impact",
		"resolved":     classifyStats.Resolved,
		"unresolved":   classifyStats.Unresolved,
		"business_yes": classifyStats.BusinessYes,
		"time":         time.Now().UTC(),
	})

	ranked := rank.Rank(classified, s.Policy)
	summary.Categories = ranked

	aiErrors := 0
	narrative, latencyMs, err := s.AI.Narrate(ctx, reportID, rank.Truncate(ranked, s.Policy.TopN))
	if err != nil {
		aiErrors++
		s.Logger.Warn().Err(err).Str("report_id", reportID).Msg("narrative generation failed")
	} else {
		summary.Narrative = &narrative
	}
	summary.Events = append(summary.Events, map[string]any{
		"type":       "narrative",
		"errors":     aiErrors,
		"latency_ms": latencyMs,
		"time":       time.Now().UTC(),
	})

	summary.Counts["pages"] = len(pages)
	summary.Counts["tables_detected"] = len(tables)
	summary.Counts["rows_captured"] = capturedRows
	summary.Counts["rows_mapped"] = mapped
	summary.Counts["rows_map_failed"] = mapFailed
	summary.Counts["kept"] = guardCounters.Kept
	summary.Counts["dropped_zero"] = guardCounters.DroppedZero
	summary.Counts["dropped_period"] = guardCounters.DroppedPeriod
	summary.Counts["dropped_no_provenance"] = guardCounters.DroppedNoProvenance
	summary.Counts["sites_resolved"] = classifyStats.Resolved
	summary.Counts["sites_unresolved"] = classifyStats.Unresolved
	summary.Counts["business_hours_findings"] = classifyStats.BusinessYes
	summary.Counts["business_hours_sites"] = classifyStats.SiteBreakdown
	summary.Counts["ai_errors"] = aiErrors

	if s.Store != nil {
		if err := s.persist(ctx, report, summary, ranked, start); err != nil {
			return summary, fmt.Errorf("persist run: %w", err)
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":       "done",
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})
	return summary, nil
}

func (s *ProcessingService) persist(ctx context.Context, report models.Report, summary RunSummary, ranked []models.Category, start time.Time) error {
	summaryJSON, _ := json.Marshal(summary)
	run := models.Run{
		ID:         summary.RunID,
		ReportID:   report.ID,
		StartedAt:  start.UTC(),
		FinishedAt: time.Now().UTC(),
		Status:     StatusOK,
		Summary:    summaryJSON,
	}
	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.InsertRun(ctx, tx, run); err != nil {
			return err
		}
		return s.Store.InsertCategories(ctx, tx, run.ID, ranked)
	})
}
