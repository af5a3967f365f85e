package models

import (
	"fmt"
	"time"
)

// Unknown is the sentinel written into any string field the row mappers could
// not recover from source text. Downstream consumers rely on the schema being
// stable, so fields are never omitted, only marked.
const Unknown = "Unknown"

type BusinessImpact string

const (
	ImpactYes BusinessImpact = "YES"
	ImpactNo  BusinessImpact = "NO"
)

// Page is one unit of paginated source text handed over by the upstream
// PDF-to-text collaborator. Pages are immutable once received.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Provenance ties a finding back to the literal source line it was extracted
// from. A finding without provenance never survives the guards.
type Provenance struct {
	Page      int    `json:"page"`
	LineIndex int    `json:"line_index"`
	Snippet   string `json:"snippet"`
}

// Key is the deduplication identity of a captured line.
func (p Provenance) Key() string {
	return fmt.Sprintf("%d:%d:%s", p.Page, p.LineIndex, p.Snippet)
}

// RawLine is a source line judged likely to be a data row.
type RawLine struct {
	Content    string     `json:"content"`
	Provenance Provenance `json:"provenance"`
}

// Finding is the canonical, normalized record of one detected operational
// event. Created by the row mappers, enriched once by the business-impact
// classifier, never mutated afterwards.
type Finding struct {
	Site            string         `json:"site"`
	Device          string         `json:"device"`
	Interface       string         `json:"interface"`
	Occurrences     int            `json:"occurrences"`
	LastOccurred    string         `json:"last_occurred,omitempty"`
	Trend           string         `json:"trend"`
	AvgDurationMin  float64        `json:"avg_duration_min"`
	ErrorType       string         `json:"error_type"`
	ImpactedClients int            `json:"impacted_clients"`
	BusinessImpact  BusinessImpact `json:"business_hours_impact"`
	Timezone        string         `json:"timezone,omitempty"`
	LocalTime       string         `json:"local_time,omitempty"`
	ImpactReason    string         `json:"impact_reason,omitempty"`
	Provenance      Provenance     `json:"provenance"`
}

// Category groups findings that share a report-table origin. Findings may be
// truncated for display; TotalFindings always carries the pre-truncation count.
type Category struct {
	Name             string    `json:"category_name"`
	Findings         []Finding `json:"findings"`
	TotalFindings    int       `json:"total_findings_count"`
	BusinessImpacted int       `json:"business_impacted_count"`
	BusinessPct      float64   `json:"business_impacted_pct"`
}

// TimeWindow is the reporting period a document claims to cover.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SiteLocation is a resolved site identity. Absence of a resolution means
// "unknown", never UTC.
type SiteLocation struct {
	Identifier string `json:"identifier"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Timezone   string `json:"timezone"`
}

// Report is a submitted document: paginated text plus the reporting period.
type Report struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Pages       []string  `json:"pages"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r Report) Window() TimeWindow {
	return TimeWindow{Start: r.PeriodStart, End: r.PeriodEnd}
}

type Run struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"report_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Summary    []byte    `json:"summary"`
}
