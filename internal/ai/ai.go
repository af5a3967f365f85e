// Package ai is the narrow contract with the external text-generation
// service. The pipeline hands over categories and gets prose back; prompt
// internals stay on the other side of the wire.
package ai

import (
	"context"

	"github.com/nocparse/backend/internal/models"
)

type Narrative struct {
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
	ModelVersion   string `json:"model_version"`
}

type Adapter interface {
	Narrate(ctx context.Context, reportID string, categories []models.Category) (Narrative, int64, error)
}
