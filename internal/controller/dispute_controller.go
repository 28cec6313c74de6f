package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/client/stripe"
	"github.com/unclebandit/donorhub-backend/internal/render"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type DisputeService interface {
	SubmitEvidence(ctx context.Context, organizationID, actorID, disputeID string, in service.SubmitEvidenceInput) (*stripe.Dispute, error)
}

type DisputeController struct {
	DisputeService DisputeService
	Logger         *zap.Logger
}

func (c *DisputeController) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	var body service.SubmitEvidenceInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to submit dispute evidence")
		return
	}
	d, err := c.DisputeService.SubmitEvidence(r.Context(), orgID(r), principal(r).UserID, chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to submit dispute evidence")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"success": true, "dispute": d})
}
