package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
	"github.com/unclebandit/donorhub-backend/internal/service"
	"github.com/unclebandit/donorhub-backend/internal/workflow"
)

type WorkflowService interface {
	Create(ctx context.Context, organizationID, name string) (*model.Workflow, error)
	List(ctx context.Context, organizationID string) ([]*model.Workflow, error)
	Get(ctx context.Context, organizationID, id string) (*model.Workflow, error)
	Update(ctx context.Context, organizationID, id string, in service.UpdateWorkflowInput) (*model.Workflow, error)
	SetStatus(ctx context.Context, organizationID, id, status string) (*model.Workflow, error)
	Execute(ctx context.Context, organizationID, id string, ec workflow.ExecuteContext) error
}

type WorkflowController struct {
	WorkflowService WorkflowService
	Logger          *zap.Logger
}

func (c *WorkflowController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to create workflow")
		return
	}
	wf, err := c.WorkflowService.Create(r.Context(), orgID(r), body.Name)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to create workflow")
		return
	}
	render.JSON(w, http.StatusCreated, wf)
}

func (c *WorkflowController) List(w http.ResponseWriter, r *http.Request) {
	wfs, err := c.WorkflowService.List(r.Context(), orgID(r))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch workflows")
		return
	}
	if wfs == nil {
		wfs = []*model.Workflow{}
	}
	render.JSON(w, http.StatusOK, map[string]any{"workflows": wfs})
}

func (c *WorkflowController) Get(w http.ResponseWriter, r *http.Request) {
	wf, err := c.WorkflowService.Get(r.Context(), orgID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to fetch workflow")
		return
	}
	render.JSON(w, http.StatusOK, wf)
}

func (c *WorkflowController) Update(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateWorkflowInput
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update workflow")
		return
	}
	wf, err := c.WorkflowService.Update(r.Context(), orgID(r), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to update workflow")
		return
	}
	render.JSON(w, http.StatusOK, wf)
}

func (c *WorkflowController) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, c.Logger, err, "Failed to update workflow status")
		return
	}
	wf, err := c.WorkflowService.SetStatus(r.Context(), orgID(r), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, r, c.Logger, err, "Failed to update workflow status")
		return
	}
	render.JSON(w, http.StatusOK, wf)
}

// Execute accepts an empty body.
func (c *WorkflowController) Execute(w http.ResponseWriter, r *http.Request) {
	var ec workflow.ExecuteContext
	if err := decodeOptionalJSON(r, &ec); err != nil {
		writeError(w, r, c.Logger, err, "Failed to execute workflow")
		return
	}
	if err := c.WorkflowService.Execute(r.Context(), orgID(r), chi.URLParam(r, "id"), ec); err != nil {
		writeError(w, r, c.Logger, err, "Failed to execute workflow")
		return
	}
	render.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
