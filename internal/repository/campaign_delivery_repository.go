package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/unclebandit/donorhub-backend/internal/model"
)

type CampaignDeliveryRepositoryInterface interface {
	GetOrCreate(ctx context.Context, campaignID, donatorID string) (*model.CampaignDelivery, error)
	MarkSent(ctx context.Context, id, renderedContent string) error
	MarkFailed(ctx context.Context, id, lastError string) error
	CountByStatus(ctx context.Context, campaignID string) (map[model.DeliveryStatus]int, error)
}

type CampaignDeliveryRepository struct {
	DB *sql.DB
}

// GetOrCreate is idempotent: an existing delivery for the pair is returned as is.
func (r *CampaignDeliveryRepository) GetOrCreate(ctx context.Context, campaignID, donatorID string) (*model.CampaignDelivery, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO campaign_deliveries (id, campaign_id, donator_id, status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
		ON CONFLICT (campaign_id, donator_id) DO NOTHING`,
		newID(), campaignID, donatorID, model.DeliveryPending)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}

	var d model.CampaignDelivery
	err = r.DB.QueryRowContext(ctx, `
		SELECT id, campaign_id, donator_id, status, rendered_content, last_error, retry_count, created_at, updated_at
		FROM campaign_deliveries WHERE campaign_id = $1 AND donator_id = $2`, campaignID, donatorID,
	).Scan(&d.ID, &d.CampaignID, &d.DonatorID, &d.Status, &d.RenderedContent, &d.LastError, &d.RetryCount,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery: %w", err)
	}
	return &d, nil
}

func (r *CampaignDeliveryRepository) MarkSent(ctx context.Context, id, renderedContent string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE campaign_deliveries SET status = $1, rendered_content = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $3`, model.DeliverySent, renderedContent, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
	}
	return nil
}

func (r *CampaignDeliveryRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE campaign_deliveries SET status = $1, last_error = $2, retry_count = retry_count + 1, updated_at = NOW()
		WHERE id = $3`, model.DeliveryFailed, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery failed: %w", err)
	}
	return nil
}

func (r *CampaignDeliveryRepository) CountByStatus(ctx context.Context, campaignID string) (map[model.DeliveryStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM campaign_deliveries WHERE campaign_id = $1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count deliveries: %w", err)
	}
	defer rows.Close()

	counts := map[model.DeliveryStatus]int{model.DeliveryPending: 0, model.DeliverySent: 0, model.DeliveryFailed: 0}
	for rows.Next() {
		var (
			status model.DeliveryStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

var _ CampaignDeliveryRepositoryInterface = (*CampaignDeliveryRepository)(nil)
