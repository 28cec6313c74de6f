package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type OrganizationService interface {
	Create(ctx context.Context, actorID string, in service.CreateOrganizationInput) (*model.Organization, error)
	List(ctx context.Context, in service.ListOrganizationsInput) (*service.OrganizationList, error)
	Suspend(ctx context.Context, actorID, organizationID, reason string) error
	UpdateSubscription(ctx context.Context, actorID, organizationID string, in service.UpdateSubscriptionInput) (*model.OrganizationSubscription, error)
}

type SystemLogService interface {
	List(ctx context.Context, in service.ListSystemLogsInput) (*service.SystemLogList, error)
}

// SuperAdminController serves the platform operator's endpoints.
type SuperAdminController struct {
	OrganizationService OrganizationService
	SystemLogService    SystemLogService
	Logger              *zap.Logger
}

func (c *SuperAdminController) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var body service.CreateOrganizationInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to create organization")
		return
	}
	org, err := c.OrganizationService.Create(r.Context(), principal(r).UserID, body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to create organization")
		return
	}
	render.JSON(w, http.StatusCreated, map[string]any{"success": true, "organization": org})
}

func (c *SuperAdminController) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := c.OrganizationService.List(r.Context(), service.ListOrganizationsInput{
		Search: q.Get("search"),
		Plan:   q.Get("plan"),
		Status: q.Get("status"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 25),
	})
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch organizations")
		return
	}
	render.JSON(w, http.StatusOK, list)
}

func (c *SuperAdminController) SuspendOrganization(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeOptionalJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to suspend organization")
		return
	}
	if err := c.OrganizationService.Suspend(r.Context(), principal(r).UserID, orgID(r), body.Reason); err != nil {
		writeError(w, r, c.Logger, err, "Failed to suspend organization")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *SuperAdminController) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateSubscriptionInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update subscription")
		return
	}
	sub, err := c.OrganizationService.UpdateSubscription(r.Context(), principal(r).UserID, orgID(r), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to update subscription")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"success": true, "subscription": sub})
}

func (c *SuperAdminController) ListSystemLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := c.SystemLogService.List(r.Context(), service.ListSystemLogsInput{
		Type:           q.Get("type"),
		Level:          q.Get("level"),
		OrganizationID: q.Get("organizationId"),
		Limit:          queryInt(r, "limit", 50),
		Offset:         queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch system logs")
		return
	}
	if list.Logs == nil {
		list.Logs = []*model.SystemLog{}
	}
	render.JSON(w, http.StatusOK, list)
}
