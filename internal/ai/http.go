package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nocparse/backend/internal/models"
)

type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

type requestBody struct {
	ReportID   string            `json:"report_id"`
	Categories []models.Category `json:"categories"`
}

type responseBody struct {
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
	ModelVersion   string `json:"model_version"`
}

func (h HTTPAdapter) Narrate(ctx context.Context, reportID string, categories []models.Category) (Narrative, int64, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 60 * time.Second}
	}

	payload := requestBody{ReportID: reportID, Categories: categories}
	b, _ := json.Marshal(payload)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/narrate", bytes.NewBuffer(b))
	if err != nil {
		return Narrative{}, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return Narrative{}, time.Since(start).Milliseconds(), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Narrative{}, time.Since(start).Milliseconds(), errors.New("narrative service error")
	}

	var r responseBody
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Narrative{}, time.Since(start).Milliseconds(), err
	}

	n := Narrative{
		Summary:        r.Summary,
		Recommendation: r.Recommendation,
		ModelVersion:   r.ModelVersion,
	}
	return n, time.Since(start).Milliseconds(), nil
}
