package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nocparse/backend/internal/db"
	"github.com/nocparse/backend/internal/extract"
	"github.com/nocparse/backend/internal/models"
	"github.com/nocparse/backend/internal/rank"
	"github.com/nocparse/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Service   *service.ProcessingService
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
	TopN      int
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Store != nil {
		if err := h.Store.Ping(c.Request.Context()); err != nil {
			errorJSON(c, http.StatusServiceUnavailable, "DB_DOWN", "database unreachable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type submitReportRequest struct {
	Filename    string   `json:"filename" validate:"required"`
	PeriodStart string   `json:"period_start" validate:"required"`
	PeriodEnd   string   `json:"period_end" validate:"required"`
	Pages       []string `json:"pages" validate:"required,min=1"`
}

// SubmitReport stores paginated report text for later processing. The pages
// come from the upstream PDF-to-text collaborator, one string per page.
func (h *Handler) SubmitReport(c *gin.Context) {
	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "BAD_PERIOD", "period_start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "BAD_PERIOD", "period_end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		errorJSON(c, http.StatusBadRequest, "BAD_PERIOD", "period_end precedes period_start")
		return
	}

	report := models.Report{
		ID:          uuid.NewString(),
		Filename:    req.Filename,
		PeriodStart: start,
		PeriodEnd:   end,
		Pages:       req.Pages,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.InsertReport(c.Request.Context(), report); err != nil {
		h.Logger.Error().Err(err).Msg("insert report")
		errorJSON(c, http.StatusInternalServerError, "DB_ERROR", "failed to store report")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": report.ID, "pages": len(report.Pages)})
}

// ProcessReport runs the extraction pipeline over a stored report.
// ?mode=strict selects strict table detection; ?debug=1 includes dropped-row
// samples in the summary.
func (h *Handler) ProcessReport(c *gin.Context) {
	id := c.Param("id")
	mode := extract.ModeFlexible
	if c.Query("mode") == "strict" {
		mode = extract.ModeStrict
	}
	debug := c.Query("debug") == "1"

	summary, err := h.Service.ProcessReport(c.Request.Context(), id, mode, debug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "NOT_FOUND", "report not found")
			return
		}
		h.Logger.Error().Err(err).Str("report_id", id).Msg("processing failed")
		errorJSON(c, http.StatusInternalServerError, "PROCESSING_ERROR", err.Error())
		return
	}
	summary.Categories = rank.Truncate(summary.Categories, h.TopN)
	c.JSON(http.StatusOK, summary)
}

// ReportFindings returns the ranked categories of a report's latest run,
// truncated to top-N unless ?full=1 asks for the whole set.
func (h *Handler) ReportFindings(c *gin.Context) {
	id := c.Param("id")
	run, err := h.Store.LatestRunForReport(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "NOT_FOUND", "no runs for report")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DB_ERROR", "failed to load run")
		return
	}
	cats, err := h.Store.ListCategories(c.Request.Context(), run.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "DB_ERROR", "failed to load findings")
		return
	}
	if c.Query("full") != "1" {
		cats = rank.Truncate(cats, h.TopN)
	}
	c.JSON(http.StatusOK, gin.H{"run_id": run.ID, "categories": cats})
}

func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "NOT_FOUND", "no runs yet")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "DB_ERROR", "failed to load run")
		return
	}
	c.JSON(http.StatusOK, run)
}

// Categories lists the registered table families in their global priority
// order, for UI consumers that render category headings.
func (h *Handler) Categories(c *gin.Context) {
	policy := rank.DefaultPolicy()
	specs := extract.DefaultRegistry()
	byKind := map[extract.CategoryKind]string{}
	for _, spec := range specs {
		byKind[spec.Kind] = spec.Name
	}
	out := make([]gin.H, 0, len(specs))
	for _, kind := range policy.Priority {
		if name, ok := byKind[kind]; ok {
			out = append(out, gin.H{"kind": kind.String(), "name": name})
		}
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}
