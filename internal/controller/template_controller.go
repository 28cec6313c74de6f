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

type TemplateService interface {
	Create(ctx context.Context, organizationID string, in service.CreateTemplateInput) (*model.EmailTemplate, error)
	Get(ctx context.Context, organizationID, id string) (*model.EmailTemplate, error)
	List(ctx context.Context, organizationID string) ([]*model.EmailTemplate, error)
	Update(ctx context.Context, organizationID, id string, in service.UpdateTemplateInput) (*model.EmailTemplate, error)
}

type TemplateController struct {
	TemplateService TemplateService
	Logger          *zap.Logger
}

func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var body service.CreateTemplateInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to create template")
		return
	}
	t, err := c.TemplateService.Create(r.Context(), orgID(r), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to create template")
		return
	}
	render.JSON(w, http.StatusCreated, t)
}

func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	t, err := c.TemplateService.Get(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch template")
		return
	}
	render.JSON(w, http.StatusOK, t)
}

func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	ts, err := c.TemplateService.List(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch templates")
		return
	}
	if ts == nil {
		ts = []*model.EmailTemplate{}
	}
	render.JSON(w, http.StatusOK, map[string]any{"templates": ts})
}

func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateTemplateInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update template")
		return
	}
	t, err := c.TemplateService.Update(r.Context(), orgID(r), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to update template")
		return
	}
	render.JSON(w, http.StatusOK, t)
}
