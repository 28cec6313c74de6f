package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/render"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type SegmentService interface {
	ListAudiences(ctx context.Context, organizationID string) ([]service.AudienceSummary, error)
	ListSegments(ctx context.Context, organizationID, typ string, limit, offset int) (*service.SegmentList, error)
	CreateSegment(ctx context.Context, organizationID string, in service.CreateSegmentInput) (*service.AudienceSummary, error)
	RefreshSegment(ctx context.Context, organizationID, segmentID string) (int, error)
	EvaluateRules(ctx context.Context, organizationID string, raw json.RawMessage) (int, error)
	GenerateSuggestions(ctx context.Context, organizationID string) (*service.GenerateSuggestionsResult, error)
	AcceptSuggestion(ctx context.Context, organizationID, suggestionID string) error
}

// SegmentController serves audiences, segments and segment suggestions.
type SegmentController struct {
	SegmentService SegmentService
	Logger         *zap.Logger
}

func (c *SegmentController) ListAudiences(w http.ResponseWriter, r *http.Request) {
	audiences, err := c.SegmentService.ListAudiences(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch audiences")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"audiences": audiences})
}

func (c *SegmentController) ListSegments(w http.ResponseWriter, r *http.Request) {
	list, err := c.SegmentService.ListSegments(r.Context(), orgID(r),
		r.URL.Query().Get("type"), queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch segments")
		return
	}
	render.JSON(w, http.StatusOK, list)
}

func (c *SegmentController) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var body service.CreateSegmentInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to create segment")
		return
	}
	seg, err := c.SegmentService.CreateSegment(r.Context(), orgID(r), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to create segment")
		return
	}
	render.JSON(w, http.StatusCreated, map[string]any{"success": true, "segment": seg})
}

func (c *SegmentController) RefreshSegment(w http.ResponseWriter, r *http.Request) {
	count, err := c.SegmentService.RefreshSegment(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to refresh segment")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"success": true, "donatorCount": count})
}

func (c *SegmentController) EvaluateRules(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to evaluate rules")
		return
	}
	count, err := c.SegmentService.EvaluateRules(r.Context(), orgID(r), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to evaluate rules")
		return
	}
	render.JSON(w, http.StatusOK, map[string]int{"count": count})
}

func (c *SegmentController) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	res, err := c.SegmentService.GenerateSuggestions(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to generate suggestions")
		return
	}
	render.JSON(w, http.StatusOK, res)
}

func (c *SegmentController) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := c.SegmentService.AcceptSuggestion(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err, "Failed to accept suggestion")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
