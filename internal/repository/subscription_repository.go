package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type SubscriptionFilter struct {
	DonatorID string
	Status    model.SubscriptionStatus
}

type SubscriptionRepositoryInterface interface {
	List(ctx context.Context, organizationID string, f SubscriptionFilter) ([]*model.Subscription, error)
	GetByID(ctx context.Context, organizationID, id string) (*model.Subscription, error)
	UpdateStatus(ctx context.Context, s *model.Subscription) error
}

type SubscriptionRepository struct {
	DB *sql.DB
}

const subscriptionSelect = `
	SELECT s.id, s.organization_id, s.donator_id, d.email, COALESCE(d.first_name, ''), COALESCE(d.last_name, ''),
	       s.form_id, s.form_title, s.amount, s.currency, s.frequency, s.gateway, s.status, s.start_date,
	       s.next_payment_date, s.end_date, s.cancelled_at, s.cancellation_reason, s.donation_count
	FROM subscriptions s
	JOIN donators d ON d.id = s.donator_id`

// List returns subscriptions ordered by next payment date.
func (r *SubscriptionRepository) List(ctx context.Context, organizationID string, f SubscriptionFilter) ([]*model.Subscription, error) {
	query := subscriptionSelect + ` WHERE s.organization_id = $1`
	args := []any{organizationID}
	if f.DonatorID != "" {
		args = append(args, f.DonatorID)
		query += fmt.Sprintf(` AND s.donator_id = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND s.status = $%d`, len(args))
	}
	query += ` ORDER BY s.next_payment_date ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	out := []*model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, organizationID, id string) (*model.Subscription, error) {
	row := r.DB.QueryRowContext(ctx, subscriptionSelect+` WHERE s.id = $1 AND s.organization_id = $2`, id, organizationID)
	s, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("subscription", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return s, nil
}

// UpdateStatus persists the lifecycle fields of s.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, s *model.Subscription) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1, cancelled_at = $2, cancellation_reason = $3
		WHERE id = $4 AND organization_id = $5`,
		s.Status, s.CancelledAt, s.CancellationReason, s.ID, s.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var (
		s         model.Subscription
		first     string
		last      string
		endDate   *time.Time
		cancelled *time.Time
	)
	err := row.Scan(&s.ID, &s.OrganizationID, &s.DonatorID, &s.DonatorEmail, &first, &last,
		&s.FormID, &s.FormTitle, &s.Amount, &s.Currency, &s.Frequency, &s.Gateway, &s.Status, &s.StartDate,
		&s.NextPaymentDate, &endDate, &cancelled, &s.CancellationReason, &s.DonationCount)
	if err != nil {
		return nil, err
	}
	s.EndDate, s.CancelledAt = endDate, cancelled
	d := model.Donator{Email: s.DonatorEmail, FirstName: &first, LastName: &last}
	s.DonatorName = d.DisplayName()
	return &s, nil
}

var _ SubscriptionRepositoryInterface = (*SubscriptionRepository)(nil)
