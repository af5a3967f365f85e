// Package guard applies the validation filters that stand between mapped rows
// and pipeline output. The pass is pure and idempotent: running it over an
// already-filtered list drops nothing further.
//
// The asymmetry here is deliberate policy, not accident: the period bound
// fails open (a finding is never excluded just because its date was
// malformed), while the provenance requirement fails closed (nothing reaches
// output without a literal trace to source text).
package guard

import (
	"strconv"
	"strings"
	"time"

	"github.com/nocparse/backend/internal/extract"
	"github.com/nocparse/backend/internal/models"
	"github.com/nocparse/backend/internal/temporal"
)

// Counters are part of the guard contract, not incidental logging.
type Counters struct {
	Kept                int `json:"kept"`
	DroppedZero         int `json:"dropped_zero"`
	DroppedPeriod       int `json:"dropped_period"`
	DroppedNoProvenance int `json:"dropped_no_provenance"`
}

// Apply filters every category's findings through the guard rules, in order:
// non-zero evidence, reporting-period bound, provenance. Categories left with
// no findings are removed.
func Apply(categories []models.Category, window models.TimeWindow) ([]models.Category, Counters) {
	var counters Counters
	out := make([]models.Category, 0, len(categories))
	for _, cat := range categories {
		kind := extract.KindForCategory(cat.Name)
		kept := make([]models.Finding, 0, len(cat.Findings))
		for _, f := range cat.Findings {
			if !hasEvidence(kind, f) {
				counters.DroppedZero++
				continue
			}
			if outsidePeriod(f, window) {
				counters.DroppedPeriod++
				continue
			}
			if strings.TrimSpace(f.Provenance.Snippet) == "" {
				counters.DroppedNoProvenance++
				continue
			}
			counters.Kept++
			kept = append(kept, f)
		}
		if len(kept) == 0 {
			continue
		}
		cat.Findings = kept
		cat.TotalFindings = len(kept)
		out = append(out, cat)
	}
	return out, counters
}

// hasEvidence requires at least one meaningful non-zero metric for the
// category, or enough raw context (a timestamp plus a known error type) to be
// informative on its own. Zero means "no evidence", not "error".
func hasEvidence(kind extract.CategoryKind, f models.Finding) bool {
	switch kind {
	case extract.KindConnectedClients:
		if f.ImpactedClients > 0 {
			return true
		}
	case extract.KindWirelessErrors:
		if f.Occurrences > 0 || f.ImpactedClients > 0 {
			return true
		}
	case extract.KindPortErrors:
		if f.Occurrences > 0 || trendMagnitude(f.Trend) != 0 {
			return true
		}
	default:
		if f.Occurrences > 0 || f.ImpactedClients > 0 || f.AvgDurationMin > 0 {
			return true
		}
	}
	if trendMagnitude(f.Trend) != 0 {
		return true
	}
	return f.LastOccurred != "" && f.ErrorType != models.Unknown && f.ErrorType != ""
}

// outsidePeriod drops only rows whose timestamp parses and falls outside the
// reporting window. The end boundary is rounded to end-of-day so a date-only
// period still admits events from its last day.
func outsidePeriod(f models.Finding, window models.TimeWindow) bool {
	if window.Start.IsZero() || window.End.IsZero() {
		return false
	}
	ts, ok := temporal.Parse(f.LastOccurred)
	if !ok {
		// Fail open: missing or malformed timestamps pass.
		return false
	}
	end := endOfDay(window.End)
	return ts.Time.Before(window.Start) || ts.Time.After(end)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

func trendMagnitude(trend string) float64 {
	trend = strings.TrimSuffix(strings.TrimSpace(trend), "%")
	if trend == "" || trend == models.Unknown {
		return 0
	}
	v, err := strconv.ParseFloat(trend, 64)
	if err != nil {
		return 0
	}
	return v
}
