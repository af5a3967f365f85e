package guard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nocparse/backend/internal/models"
)

func augustWindow() models.TimeWindow {
	return models.TimeWindow{
		Start: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func finding(occ int, last string) models.Finding {
	return models.Finding{
		Site:           "ATL",
		Device:         "ATL-SW1",
		Interface:      models.Unknown,
		Occurrences:    occ,
		LastOccurred:   last,
		Trend:          models.Unknown,
		ErrorType:      models.Unknown,
		BusinessImpact: models.ImpactNo,
		Provenance:     models.Provenance{Page: 1, LineIndex: 3, Snippet: "ATL-SW1 source line"},
	}
}

func TestApplyKeepsValidRow(t *testing.T) {
	cats := []models.Category{{
		Name:     "Interface down events",
		Findings: []models.Finding{finding(5, "08/15/2025 10:30")},
	}}
	out, counters := Apply(cats, augustWindow())
	if counters.Kept != 1 || len(out) != 1 || len(out[0].Findings) != 1 {
		t.Fatalf("expected row kept, got %+v counters %+v", out, counters)
	}
}

func TestApplyDropsZeroEvidence(t *testing.T) {
	cats := []models.Category{{
		Name:     "Interface down events",
		Findings: []models.Finding{finding(0, "")},
	}}
	out, counters := Apply(cats, augustWindow())
	if counters.DroppedZero != 1 {
		t.Fatalf("expected dropped_zero=1, got %+v", counters)
	}
	if len(out) != 0 {
		t.Fatalf("category with no surviving rows must disappear: %+v", out)
	}
}

func TestApplyDropsOutOfPeriod(t *testing.T) {
	cats := []models.Category{{
		Name:     "Interface down events",
		Findings: []models.Finding{finding(5, "09/15/2025")},
	}}
	_, counters := Apply(cats, augustWindow())
	if counters.DroppedPeriod != 1 || counters.Kept != 0 {
		t.Fatalf("expected dropped_period=1, got %+v", counters)
	}
}

func TestApplyPeriodEndOfDayInclusive(t *testing.T) {
	cats := []models.Category{{
		Name:     "Interface down events",
		Findings: []models.Finding{finding(5, "08/31/2025 18:45")},
	}}
	_, counters := Apply(cats, augustWindow())
	if counters.Kept != 1 {
		t.Fatalf("event on the window's last day must pass, got %+v", counters)
	}
}

func TestApplyMalformedTimestampFailsOpen(t *testing.T) {
	cats := []models.Category{{
		Name:     "Interface down events",
		Findings: []models.Finding{finding(5, "sometime in August")},
	}}
	_, counters := Apply(cats, augustWindow())
	if counters.Kept != 1 || counters.DroppedPeriod != 0 {
		t.Fatalf("malformed timestamp must fail open, got %+v", counters)
	}
}

func TestApplyDropsMissingProvenance(t *testing.T) {
	f := finding(5, "08/15/2025 10:30")
	f.Provenance.Snippet = "   "
	cats := []models.Category{{Name: "Interface down events", Findings: []models.Finding{f}}}
	_, counters := Apply(cats, augustWindow())
	if counters.DroppedNoProvenance != 1 {
		t.Fatalf("expected dropped_no_provenance=1, got %+v", counters)
	}
}

func TestApplyIdempotent(t *testing.T) {
	cats := []models.Category{{
		Name: "Interface down events",
		Findings: []models.Finding{
			finding(5, "08/15/2025 10:30"),
			finding(0, ""),
			finding(2, "09/15/2025"),
		},
	}}
	once, _ := Apply(cats, augustWindow())
	twice, counters := Apply(once, augustWindow())
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second pass changed output (-once +twice):\n%s", diff)
	}
	if counters.DroppedZero != 0 || counters.DroppedPeriod != 0 || counters.DroppedNoProvenance != 0 {
		t.Fatalf("second pass dropped rows: %+v", counters)
	}
}

func TestApplyInvariantProvenanceNonEmpty(t *testing.T) {
	cats := []models.Category{{
		Name: "Wireless errors",
		Findings: []models.Finding{
			{Occurrences: 3, Provenance: models.Provenance{Snippet: "line"}},
			{Occurrences: 3},
		},
	}}
	out, _ := Apply(cats, augustWindow())
	for _, c := range out {
		for _, f := range c.Findings {
			if f.Provenance.Snippet == "" {
				t.Fatalf("provenance invariant violated: %+v", f)
			}
		}
	}
}
