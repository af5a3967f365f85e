package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nocparse/backend/internal/models"
)

// MockAdapter produces deterministic placeholder prose for local runs with no
// narrative service configured.
type MockAdapter struct {
	ModelVersion string
}

func (m MockAdapter) Narrate(ctx context.Context, reportID string, categories []models.Category) (Narrative, int64, error) {
	start := time.Now()

	total := 0
	impacted := 0
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		total += c.TotalFindings
		impacted += c.BusinessImpacted
		names = append(names, c.Name)
	}

	summary := fmt.Sprintf(
		"Report %s surfaced %d findings across %d categories (%s); %d occurred during business hours.",
		reportID, total, len(categories), strings.Join(names, ", "), impacted,
	)
	recommendation := "Review the highest-priority categories first and confirm site impact with local teams."
	if total == 0 {
		summary = fmt.Sprintf("Report %s surfaced no actionable findings.", reportID)
		recommendation = "No action required."
	}

	n := Narrative{
		Summary:        summary,
		Recommendation: recommendation,
		ModelVersion:   m.ModelVersion,
	}
	return n, time.Since(start).Milliseconds(), nil
}
