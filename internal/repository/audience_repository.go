package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/donorhub-backend/internal/db"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type AudienceRepositoryInterface interface {
	ListByName(ctx context.Context, organizationID string) ([]*model.Audience, error)
	ListSegments(ctx context.Context, organizationID string, typ model.AudienceType, offset, limit int) ([]*model.Audience, int, error)
	GetByID(ctx context.Context, organizationID, id string) (*model.Audience, error)
	Create(ctx context.Context, a *model.Audience, donatorIDs []string) error
	SetCachedCount(ctx context.Context, id string, count int) error

	GetSuggestion(ctx context.Context, id string) (*model.SegmentSuggestion, error)
	AcceptSuggestion(ctx context.Context, id string, at time.Time) error
}

type AudienceRepository struct {
	DB *sql.DB
}

// Static audiences carry their member count; dynamic ones rely on cached_donator_count.
const audienceSelect = `
	SELECT a.id, a.organization_id, a.name, a.description, a.type, a.rules, a.cached_donator_count,
	       a.created_at, a.updated_at,
	       (SELECT COUNT(*) FROM audience_donators ad WHERE ad.audience_id = a.id)
	FROM audiences a`

func (r *AudienceRepository) ListByName(ctx context.Context, organizationID string) ([]*model.Audience, error) {
	rows, err := r.DB.QueryContext(ctx, audienceSelect+` WHERE a.organization_id = $1 ORDER BY a.name ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audiences: %w", err)
	}
	defer rows.Close()
	return scanAudiences(rows)
}

// ListSegments returns segments newest first. An empty typ lists both kinds.
func (r *AudienceRepository) ListSegments(ctx context.Context, organizationID string, typ model.AudienceType, offset, limit int) ([]*model.Audience, int, error) {
	cond := ` WHERE a.organization_id = $1`
	args := []any{organizationID}
	if typ != "" {
		cond += ` AND a.type = $2`
		args = append(args, typ)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audiences a`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count segments: %w", err)
	}

	query := audienceSelect + cond + fmt.Sprintf(` ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	segments, err := scanAudiences(rows)
	if err != nil {
		return nil, 0, err
	}
	return segments, total, nil
}

// GetByID reports an audience of another organization as not found.
func (r *AudienceRepository) GetByID(ctx context.Context, organizationID, id string) (*model.Audience, error) {
	row := r.DB.QueryRowContext(ctx, audienceSelect+` WHERE a.id = $1 AND a.organization_id = $2`, id, organizationID)
	a, err := scanAudience(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("audience", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audience: %w", err)
	}
	return a, nil
}

// Create inserts the audience and, for static audiences, the members that belong to
// the same organization. Unknown or foreign donator IDs are ignored.
func (r *AudienceRepository) Create(ctx context.Context, a *model.Audience, donatorIDs []string) error {
	now := time.Now().UTC()
	a.ID = newID()
	a.CreatedAt, a.UpdatedAt = now, now

	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audiences (id, organization_id, name, description, type, rules, cached_donator_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.OrganizationID, a.Name, a.Description, a.Type, jsonParam(a.Rules), a.CachedDonatorCount, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert audience: %w", err)
		}
		if len(donatorIDs) == 0 {
			return nil
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO audience_donators (audience_id, donator_id)
			SELECT $1, d.id FROM donators d
			WHERE d.organization_id = $2 AND d.id = ANY($3)
			ON CONFLICT DO NOTHING`,
			a.ID, a.OrganizationID, pq.Array(donatorIDs),
		)
		if err != nil {
			return fmt.Errorf("failed to insert audience members: %w", err)
		}
		n, _ := res.RowsAffected()
		a.MemberCount = int(n)
		return nil
	})
}

func (r *AudienceRepository) SetCachedCount(ctx context.Context, id string, count int) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE audiences SET cached_donator_count = $1, updated_at = NOW() WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("failed to update cached count: %w", err)
	}
	return nil
}

func (r *AudienceRepository) GetSuggestion(ctx context.Context, id string) (*model.SegmentSuggestion, error) {
	var (
		s     model.SegmentSuggestion
		rules []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, organization_id, name, description, rules, is_accepted, accepted_at, created_at
		FROM segment_suggestions WHERE id = $1`, id,
	).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description, &rules, &s.IsAccepted, &s.AcceptedAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("suggestion", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	s.Rules = rawJSON(rules)
	return &s, nil
}

// AcceptSuggestion marks the suggestion accepted unless it already is.
func (r *AudienceRepository) AcceptSuggestion(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE segment_suggestions SET is_accepted = TRUE, accepted_at = $1
		WHERE id = $2 AND is_accepted = FALSE`, at, id)
	if err != nil {
		return fmt.Errorf("failed to accept suggestion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewConflict("suggestion already accepted")
	}
	return nil
}

func scanAudience(row rowScanner) (*model.Audience, error) {
	var (
		a     model.Audience
		rules []byte
	)
	if err := row.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Description, &a.Type, &rules, &a.CachedDonatorCount,
		&a.CreatedAt, &a.UpdatedAt, &a.MemberCount); err != nil {
		return nil, err
	}
	a.Rules = rawJSON(rules)
	return &a, nil
}

func scanAudiences(rows *sql.Rows) ([]*model.Audience, error) {
	out := []*model.Audience{}
	for rows.Next() {
		a, err := scanAudience(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audience: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ AudienceRepositoryInterface = (*AudienceRepository)(nil)
