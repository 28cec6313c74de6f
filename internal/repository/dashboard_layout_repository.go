package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type DashboardLayoutRepositoryInterface interface {
	Get(ctx context.Context, userID string) (json.RawMessage, error)
	Save(ctx context.Context, userID string, layout json.RawMessage) error
}

type DashboardLayoutRepository struct {
	DB *sql.DB
}

// Get returns nil when the user never saved a layout.
func (r *DashboardLayoutRepository) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `SELECT layout FROM dashboard_layouts WHERE user_id = $1`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard layout: %w", err)
	}
	return rawJSON(raw), nil
}

func (r *DashboardLayoutRepository) Save(ctx context.Context, userID string, layout json.RawMessage) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO dashboard_layouts (user_id, layout, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET layout = EXCLUDED.layout, updated_at = NOW()`,
		userID, jsonParam(layout))
	if err != nil {
		return fmt.Errorf("failed to save dashboard layout: %w", err)
	}
	return nil
}

var _ DashboardLayoutRepositoryInterface = (*DashboardLayoutRepository)(nil)
