package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
	"github.com/unclebandit/donorhub-backend/internal/service"
)

type CampaignService interface {
	CreateCampaign(ctx context.Context, organizationID string, in service.CreateCampaignInput) (*model.EmailCampaign, error)
	ListCampaigns(ctx context.Context, organizationID, status string, limit, offset int) (*service.CampaignList, error)
	CampaignStats(ctx context.Context, organizationID, campaignID string) (*service.CampaignStatsResult, error)
	SendCampaign(ctx context.Context, organizationID, campaignID, requestedBy string) (*model.EmailCampaign, error)
	CancelCampaign(ctx context.Context, organizationID, campaignID string) error
	PreviewCampaign(ctx context.Context, organizationID, campaignID, donatorID string) (string, error)
	CampaignDashboard(ctx context.Context, organizationID string) (*service.CampaignDashboard, error)
}

type CampaignController struct {
	CampaignService CampaignService
	Logger          *zap.Logger
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to create campaign")
		return
	}
	campaign, err := c.CampaignService.CreateCampaign(r.Context(), orgID(r), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to create campaign")
		return
	}
	render.JSON(w, http.StatusCreated, map[string]any{"success": true, "campaign": campaign})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := c.CampaignService.ListCampaigns(r.Context(), orgID(r),
		r.URL.Query().Get("status"), queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch campaigns")
		return
	}
	render.JSON(w, http.StatusOK, list)
}

func (c *CampaignController) GetCampaignDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := c.CampaignService.CampaignDashboard(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to load campaign dashboard")
		return
	}
	render.JSON(w, http.StatusOK, dashboard)
}

func (c *CampaignController) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.CampaignService.CampaignStats(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch campaign stats")
		return
	}
	render.JSON(w, http.StatusOK, stats)
}

func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.SendCampaign(r.Context(), orgID(r), chi.URLParam(r, "id"), principal(r).UserID)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to send campaign")
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"campaignId": campaign.ID,
		"status":     campaign.Status,
		"sentAt":     campaign.SentAt,
		"recipients": campaign.Stats.Sent,
	})
}

func (c *CampaignController) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.CampaignService.CancelCampaign(r.Context(), orgID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, c.Logger, err, "Failed to cancel campaign")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *CampaignController) PreviewCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DonatorID string `json:"donatorId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to render preview")
		return
	}
	html, err := c.CampaignService.PreviewCampaign(r.Context(), orgID(r), chi.URLParam(r, "id"), body.DonatorID)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to render preview")
		return
	}
	render.JSON(w, http.StatusOK, map[string]string{"html": html, "donatorId": body.DonatorID})
}
