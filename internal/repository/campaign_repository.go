package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.EmailCampaign) error
	GetByID(ctx context.Context, organizationID, id string) (*model.EmailCampaign, error)
	List(ctx context.Context, organizationID string, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, int, error)
	Count(ctx context.Context, organizationID string) (int, error)
	ListSentStats(ctx context.Context, organizationID string) ([]model.CampaignStats, error)
	ListActivity(ctx context.Context, organizationID string) ([]CampaignActivity, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, stats model.CampaignStats) error
	TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignSelect = `
	SELECT c.id, c.organization_id, c.name, c.subject, c.from_name, c.from_email, c.template_id, c.audience_id,
	       c.status, c.scheduled_at, c.sent_at, c.stats, c.created_at, c.updated_at,
	       COALESCE(t.name, ''), COALESCE(a.name, '')
	FROM email_campaigns c
	LEFT JOIN email_templates t ON t.id = c.template_id
	LEFT JOIN audiences a ON a.id = c.audience_id`

func (r *CampaignRepository) Create(ctx context.Context, c *model.EmailCampaign) error {
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO email_campaigns
			(id, organization_id, name, subject, from_name, from_email, template_id, audience_id,
			 status, scheduled_at, sent_at, stats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.OrganizationID, c.Name, c.Subject, c.FromName, c.FromEmail, c.TemplateID, c.AudienceID,
		c.Status, c.ScheduledAt, c.SentAt, mustJSON(c.Stats), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, organizationID, id string) (*model.EmailCampaign, error) {
	row := r.DB.QueryRowContext(ctx, campaignSelect+` WHERE c.id = $1 AND c.organization_id = $2`, id, organizationID)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("campaign", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

// List returns campaigns newest first with template and audience names.
func (r *CampaignRepository) List(ctx context.Context, organizationID string, status model.CampaignStatus, offset, limit int) ([]*model.EmailCampaign, int, error) {
	cond := ` WHERE c.organization_id = $1`
	args := []any{organizationID}
	if status != "" {
		cond += ` AND c.status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_campaigns c`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	query := campaignSelect + cond + fmt.Sprintf(` ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*model.EmailCampaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) Count(ctx context.Context, organizationID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_campaigns WHERE organization_id = $1`, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return n, nil
}

// ListSentStats returns the stats of every campaign of the organization that sent at least one email.
func (r *CampaignRepository) ListSentStats(ctx context.Context, organizationID string) ([]model.CampaignStats, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT stats FROM email_campaigns
		WHERE organization_id = $1 AND COALESCE((stats->>'sent')::int, 0) > 0`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign stats: %w", err)
	}
	defer rows.Close()

	var out []model.CampaignStats
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var s model.CampaignStats
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid campaign stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CampaignActivity is the status and send time of one campaign.
type CampaignActivity struct {
	Status model.CampaignStatus
	SentAt *time.Time
}

func (r *CampaignRepository) ListActivity(ctx context.Context, organizationID string) ([]CampaignActivity, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, sent_at FROM email_campaigns WHERE organization_id = $1`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign activity: %w", err)
	}
	defer rows.Close()

	var out []CampaignActivity
	for rows.Next() {
		var a CampaignActivity
		if err := rows.Scan(&a.Status, &a.SentAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkSent records a send. A campaign already SENT or SENDING is left untouched.
func (r *CampaignRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, stats model.CampaignStats) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE email_campaigns
		SET status = $1, sent_at = $2, scheduled_at = NULL, stats = $3, updated_at = NOW()
		WHERE id = $4 AND status NOT IN ($5, $6)`,
		model.CampaignSent, sentAt, mustJSON(stats), id, model.CampaignSent, model.CampaignSending)
	if err != nil {
		return fmt.Errorf("failed to mark campaign sent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewConflict("campaign already sent")
	}
	return nil
}

// TransitionStatus moves a campaign to `to` only if its current status is one of from.
func (r *CampaignRepository) TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) error {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE email_campaigns SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)`, to, id, pq.Array(allowed))
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewConflict(fmt.Sprintf("campaign cannot move to %s", to))
	}
	return nil
}

func scanCampaign(row rowScanner) (*model.EmailCampaign, error) {
	var (
		c     model.EmailCampaign
		stats []byte
	)
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Subject, &c.FromName, &c.FromEmail, &c.TemplateID, &c.AudienceID,
		&c.Status, &c.ScheduledAt, &c.SentAt, &stats, &c.CreatedAt, &c.UpdatedAt, &c.TemplateName, &c.AudienceName)
	if err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &c.Stats); err != nil {
			return nil, fmt.Errorf("invalid campaign stats: %w", err)
		}
	}
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
