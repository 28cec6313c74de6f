package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type WorkflowRepositoryInterface interface {
	Create(ctx context.Context, w *model.Workflow) error
	GetByID(ctx context.Context, organizationID, id string) (*model.Workflow, error)
	List(ctx context.Context, organizationID string) ([]*model.Workflow, error)
	Update(ctx context.Context, w *model.Workflow) error
}

type WorkflowRepository struct {
	DB *sql.DB
}

const workflowColumns = `id, organization_id, name, status, nodes, edges, created_at, updated_at`

func (r *WorkflowRepository) Create(ctx context.Context, w *model.Workflow) error {
	now := time.Now().UTC()
	w.ID = newID()
	w.CreatedAt, w.UpdatedAt = now, now
	if w.Status == "" {
		w.Status = model.WorkflowDraft
	}
	if len(w.Nodes) == 0 {
		w.Nodes = []byte("[]")
	}
	if len(w.Edges) == 0 {
		w.Edges = []byte("[]")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO workflows (`+workflowColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.OrganizationID, w.Name, w.Status, jsonParam(w.Nodes), jsonParam(w.Edges), w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, organizationID, id string) (*model.Workflow, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE id = $1 AND organization_id = $2`,
		id, organizationID)
	w, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("workflow", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return w, nil
}

// List returns the organization's workflows, most recently edited first.
func (r *WorkflowRepository) List(ctx context.Context, organizationID string) ([]*model.Workflow, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE organization_id = $1 ORDER BY updated_at DESC`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	out := []*model.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WorkflowRepository) Update(ctx context.Context, w *model.Workflow) error {
	w.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE workflows SET name = $1, status = $2, nodes = $3, edges = $4, updated_at = $5
		WHERE id = $6 AND organization_id = $7`,
		w.Name, w.Status, jsonParam(w.Nodes), jsonParam(w.Edges), w.UpdatedAt, w.ID, w.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("workflow", w.ID)
	}
	return nil
}

func scanWorkflow(row rowScanner) (*model.Workflow, error) {
	var (
		w            model.Workflow
		nodes, edges []byte
	)
	if err := row.Scan(&w.ID, &w.OrganizationID, &w.Name, &w.Status, &nodes, &edges, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Nodes = rawJSON(nodes)
	w.Edges = rawJSON(edges)
	return &w, nil
}

var _ WorkflowRepositoryInterface = (*WorkflowRepository)(nil)
