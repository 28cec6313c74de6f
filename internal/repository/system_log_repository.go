package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/unclebandit/donorhub-backend/internal/model"
)

type SystemLogFilter struct {
	Type           string
	Level          model.LogLevel
	OrganizationID string
	Offset         int
	Limit          int
}

type SystemLogRepositoryInterface interface {
	Create(ctx context.Context, entry *model.SystemLog) error
	List(ctx context.Context, f SystemLogFilter) ([]*model.SystemLog, int, error)
}

type SystemLogRepository struct {
	DB *sql.DB
}

func (r *SystemLogRepository) Create(ctx context.Context, e *model.SystemLog) error {
	e.ID = newID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO system_logs
			(id, type, level, message, details, organization_id, user_id, ip_address, user_agent,
			 endpoint, method, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.Type, e.Level, e.Message, jsonParam(e.Details), e.OrganizationID, e.UserID,
		e.IPAddress, e.UserAgent, e.Endpoint, e.Method, e.StatusCode, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert system log: %w", err)
	}
	return nil
}

func (r *SystemLogRepository) List(ctx context.Context, f SystemLogFilter) ([]*model.SystemLog, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argPos := 1
	if f.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", argPos))
		args = append(args, f.Type)
		argPos++
	}
	if f.Level != "" {
		where = append(where, fmt.Sprintf("level = $%d", argPos))
		args = append(args, f.Level)
		argPos++
	}
	if f.OrganizationID != "" {
		where = append(where, fmt.Sprintf("organization_id = $%d", argPos))
		args = append(args, f.OrganizationID)
		argPos++
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_logs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count system logs: %w", err)
	}

	query := `SELECT id, type, level, message, details, organization_id, user_id, ip_address, user_agent,
		endpoint, method, status_code, created_at
		FROM system_logs WHERE ` + cond +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list system logs: %w", err)
	}
	defer rows.Close()

	logs := []*model.SystemLog{}
	for rows.Next() {
		var (
			e       model.SystemLog
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Level, &e.Message, &details, &e.OrganizationID, &e.UserID,
			&e.IPAddress, &e.UserAgent, &e.Endpoint, &e.Method, &e.StatusCode, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan system log: %w", err)
		}
		e.Details = rawJSON(details)
		logs = append(logs, &e)
	}
	return logs, total, rows.Err()
}

var _ SystemLogRepositoryInterface = (*SystemLogRepository)(nil)
