package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type EmailTemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.EmailTemplate) error
	GetByID(ctx context.Context, organizationID, id string) (*model.EmailTemplate, error)
	List(ctx context.Context, organizationID string) ([]*model.EmailTemplate, error)
	Update(ctx context.Context, t *model.EmailTemplate) error
}

type EmailTemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `id, organization_id, name, description, content, html, thumbnail, created_at, updated_at`

func (r *EmailTemplateRepository) Create(ctx context.Context, t *model.EmailTemplate) error {
	now := time.Now().UTC()
	t.ID = newID()
	t.CreatedAt, t.UpdatedAt = now, now
	if len(t.Content) == 0 {
		t.Content = []byte("[]")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO email_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.OrganizationID, t.Name, t.Description, jsonParam(t.Content), t.HTML, t.Thumbnail, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func (r *EmailTemplateRepository) GetByID(ctx context.Context, organizationID, id string) (*model.EmailTemplate, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1 AND organization_id = $2`,
		id, organizationID)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (r *EmailTemplateRepository) List(ctx context.Context, organizationID string) ([]*model.EmailTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE organization_id = $1 ORDER BY name ASC`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	out := []*model.EmailTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *EmailTemplateRepository) Update(ctx context.Context, t *model.EmailTemplate) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE email_templates
		SET name = $1, description = $2, content = $3, html = $4, thumbnail = $5, updated_at = $6
		WHERE id = $7 AND organization_id = $8`,
		t.Name, t.Description, jsonParam(t.Content), t.HTML, t.Thumbnail, t.UpdatedAt, t.ID, t.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("template", t.ID)
	}
	return nil
}

func scanTemplate(row rowScanner) (*model.EmailTemplate, error) {
	var (
		t       model.EmailTemplate
		content []byte
	)
	if err := row.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Description, &content, &t.HTML, &t.Thumbnail,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Content = rawJSON(content)
	return &t, nil
}

var _ EmailTemplateRepositoryInterface = (*EmailTemplateRepository)(nil)
