package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

type SubscriptionService interface {
	List(ctx context.Context, organizationID, donatorID, status string) ([]*model.Subscription, error)
	Cancel(ctx context.Context, organizationID, id, reason string) (*model.Subscription, error)
	Pause(ctx context.Context, organizationID, id string) (*model.Subscription, error)
	Resume(ctx context.Context, organizationID, id string) (*model.Subscription, error)
}

// SubscriptionController serves donors' recurring donations.
type SubscriptionController struct {
	SubscriptionService SubscriptionService
	Logger              *zap.Logger
}

func (c *SubscriptionController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subs, err := c.SubscriptionService.List(r.Context(), orgID(r), q.Get("donatorId"), q.Get("status"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch subscriptions")
		return
	}
	if subs == nil {
		subs = []*model.Subscription{}
	}
	render.JSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (c *SubscriptionController) Cancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeOptionalJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to cancel subscription")
		return
	}
	sub, err := c.SubscriptionService.Cancel(r.Context(), orgID(r), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to cancel subscription")
		return
	}
	render.JSON(w, http.StatusOK, sub)
}

func (c *SubscriptionController) Pause(w http.ResponseWriter, r *http.Request) {
	sub, err := c.SubscriptionService.Pause(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to pause subscription")
		return
	}
	render.JSON(w, http.StatusOK, sub)
}

func (c *SubscriptionController) Resume(w http.ResponseWriter, r *http.Request) {
	sub, err := c.SubscriptionService.Resume(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to resume subscription")
		return
	}
	render.JSON(w, http.StatusOK, sub)
}
