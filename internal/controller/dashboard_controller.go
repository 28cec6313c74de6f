package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

type DashboardService interface {
	GetLayout(ctx context.Context, userID string) ([]model.LayoutItem, error)
	SaveLayout(ctx context.Context, userID string, items []model.LayoutItem) error
}

// DashboardController stores the calling user's dashboard grid.
type DashboardController struct {
	DashboardService DashboardService
	Logger           *zap.Logger
}

func (c *DashboardController) GetLayout(w http.ResponseWriter, r *http.Request) {
	items, err := c.DashboardService.GetLayout(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch dashboard layout")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"layout": items})
}

func (c *DashboardController) SaveLayout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Layout []model.LayoutItem `json:"layout"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to save dashboard layout")
		return
	}
	if err := c.DashboardService.SaveLayout(r.Context(), principal(r).UserID, body.Layout); err != nil {
		writeError(w, r, c.Logger, err, "Failed to save dashboard layout")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
