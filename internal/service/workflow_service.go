package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/repository"
	"github.com/unclebandit/donorhub-backend/internal/workflow"
)

type WorkflowService struct {
	Repo   repository.WorkflowRepositoryInterface
	Logger *zap.Logger
}

func (s *WorkflowService) Create(ctx context.Context, organizationID, name string) (*model.Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("name", "name is required")
	}
	w := &model.Workflow{OrganizationID: organizationID, Name: name, Status: model.WorkflowDraft}
	if err := s.Repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkflowService) List(ctx context.Context, organizationID string) ([]*model.Workflow, error) {
	return s.Repo.List(ctx, organizationID)
}

func (s *WorkflowService) Get(ctx context.Context, organizationID, id string) (*model.Workflow, error) {
	return s.Repo.GetByID(ctx, organizationID, id)
}

type UpdateWorkflowInput struct {
	Name  *string         `json:"name"`
	Nodes json.RawMessage `json:"nodes"`
	Edges json.RawMessage `json:"edges"`
}

// Update saves the editor state. The resulting graph must be valid.
func (s *WorkflowService) Update(ctx context.Context, organizationID, id string, in UpdateWorkflowInput) (*model.Workflow, error) {
	w, err := s.Repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, appErrors.NewValidation("name", "name is required")
		}
		w.Name = name
	}
	if len(in.Nodes) > 0 {
		w.Nodes = in.Nodes
	}
	if len(in.Edges) > 0 {
		w.Edges = in.Edges
	}

	g, err := workflow.Parse(w.Nodes, w.Edges)
	if err != nil {
		return nil, appErrors.NewValidation("nodes", err.Error())
	}
	if err := g.Validate(); err != nil {
		return nil, appErrors.NewValidation("nodes", err.Error())
	}

	if err := s.Repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkflowService) SetStatus(ctx context.Context, organizationID, id, status string) (*model.Workflow, error) {
	st := model.WorkflowStatus(status)
	if !st.Valid() {
		return nil, appErrors.NewValidation("status", "status must be one of: DRAFT, ACTIVE, PAUSED")
	}
	w, err := s.Repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	w.Status = st
	if err := s.Repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Execute loads an active workflow and checks its graph. No action runs yet.
func (s *WorkflowService) Execute(ctx context.Context, organizationID, id string, ec workflow.ExecuteContext) error {
	w, err := s.Repo.GetByID(ctx, organizationID, id)
	var notFound *appErrors.ErrNotFound
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	if err != nil || w.Status != model.WorkflowActive {
		return appErrors.NewNotFoundMessage("workflow", "workflow not found or inactive")
	}

	g, err := workflow.Parse(w.Nodes, w.Edges)
	if err != nil {
		return appErrors.NewValidation("nodes", err.Error())
	}
	s.Logger.Info("workflow execution requested",
		zap.String("workflow_id", w.ID),
		zap.String("trigger", ec.TriggerType),
		zap.String("donator_id", ec.DonatorID),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("triggers", len(g.Triggers())),
	)
	return nil
}
