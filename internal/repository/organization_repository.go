package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/unclebandit/donorhub-backend/internal/db"
	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
)

type OrganizationFilter struct {
	Search string
	Plan   model.Plan
	Status model.OrganizationSubscriptionStatus
	Offset int
	Limit  int
}

type OrganizationRepositoryInterface interface {
	Create(ctx context.Context, org *model.Organization, sub *model.OrganizationSubscription) error
	GetByID(ctx context.Context, id string) (*model.Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f OrganizationFilter) ([]*model.Organization, int, error)
	Suspend(ctx context.Context, id string) error
	GetSubscription(ctx context.Context, organizationID string) (*model.OrganizationSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.OrganizationSubscription) error
}

type OrganizationRepository struct {
	DB *sql.DB
}

const organizationColumns = `o.id, o.name, o.slug, o.email, o.logo, o.website, o.description, o.phone,
	o.address, o.city, o.province, o.postal_code, o.country, o.is_active, o.created_at, o.updated_at,
	s.id, s.plan, s.status, s.start_date, s.end_date, s.trial_end_date,
	s.max_users, s.max_donors, s.max_forms, s.max_campaigns`

// Create inserts the organization and its subscription in one transaction.
func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization, sub *model.OrganizationSubscription) error {
	now := time.Now().UTC()
	org.ID = newID()
	org.CreatedAt, org.UpdatedAt = now, now
	sub.ID = newID()
	sub.OrganizationID = org.ID

	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO organizations
				(id, name, slug, email, logo, website, description, phone, address, city, province,
				 postal_code, country, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			org.ID, org.Name, org.Slug, org.Email, org.Logo, org.Website, org.Description, org.Phone,
			org.Address, org.City, org.Province, org.PostalCode, org.Country, org.IsActive, org.CreatedAt, org.UpdatedAt,
		)
		if err != nil {
			return conflictOr(err, "slug already exists")
		}
		return insertSubscription(ctx, tx, sub)
	})
	if err != nil {
		return err
	}
	org.Subscription = sub
	return nil
}

func insertSubscription(ctx context.Context, q queryer, sub *model.OrganizationSubscription) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO organization_subscriptions
			(id, organization_id, plan, status, start_date, end_date, trial_end_date,
			 max_users, max_donors, max_forms, max_campaigns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sub.ID, sub.OrganizationID, sub.Plan, sub.Status, sub.StartDate, sub.EndDate, sub.TrialEndDate,
		sub.MaxUsers, sub.MaxDonors, sub.MaxForms, sub.MaxCampaigns,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations o
		LEFT JOIN organization_subscriptions s ON s.organization_id = o.id
		WHERE o.id = $1`, id)
	org, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("organization", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// List returns organizations newest first with the total matching count.
func (r *OrganizationRepository) List(ctx context.Context, f OrganizationFilter) ([]*model.Organization, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argPos := 1

	if f.Search != "" {
		where = append(where, fmt.Sprintf("(o.name ILIKE $%d OR o.slug ILIKE $%d OR o.email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+f.Search+"%")
		argPos++
	}
	if f.Plan != "" {
		where = append(where, fmt.Sprintf("s.plan = $%d", argPos))
		args = append(args, f.Plan)
		argPos++
	}
	if f.Status != "" {
		where = append(where, fmt.Sprintf("s.status = $%d", argPos))
		args = append(args, f.Status)
		argPos++
	}
	from := ` FROM organizations o LEFT JOIN organization_subscriptions s ON s.organization_id = o.id WHERE ` +
		strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	query := `SELECT ` + organizationColumns + from +
		fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []*model.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, total, rows.Err()
}

// Suspend deactivates the organization and cancels its subscription together.
func (r *OrganizationRepository) Suspend(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE organizations SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to suspend organization: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return appErrors.NewNotFound("organization", id)
		}
		_, err = tx.ExecContext(ctx, `UPDATE organization_subscriptions SET status = $1 WHERE organization_id = $2`,
			model.OrgSubscriptionCanceled, id)
		if err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		return nil
	})
}

// GetSubscription returns nil without error when the organization has no subscription.
func (r *OrganizationRepository) GetSubscription(ctx context.Context, organizationID string) (*model.OrganizationSubscription, error) {
	var s model.OrganizationSubscription
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, organization_id, plan, status, start_date, end_date, trial_end_date,
		       max_users, max_donors, max_forms, max_campaigns
		FROM organization_subscriptions WHERE organization_id = $1`, organizationID,
	).Scan(&s.ID, &s.OrganizationID, &s.Plan, &s.Status, &s.StartDate, &s.EndDate, &s.TrialEndDate,
		&s.MaxUsers, &s.MaxDonors, &s.MaxForms, &s.MaxCampaigns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &s, nil
}

// SaveSubscription inserts sub when it has no ID, otherwise overwrites the stored row.
func (r *OrganizationRepository) SaveSubscription(ctx context.Context, sub *model.OrganizationSubscription) error {
	if sub.ID == "" {
		sub.ID = newID()
		return insertSubscription(ctx, r.DB, sub)
	}
	_, err := r.DB.ExecContext(ctx, `
		UPDATE organization_subscriptions
		SET plan = $1, status = $2, start_date = $3, end_date = $4, trial_end_date = $5,
		    max_users = $6, max_donors = $7, max_forms = $8, max_campaigns = $9
		WHERE id = $10`,
		sub.Plan, sub.Status, sub.StartDate, sub.EndDate, sub.TrialEndDate,
		sub.MaxUsers, sub.MaxDonors, sub.MaxForms, sub.MaxCampaigns, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*model.Organization, error) {
	var (
		o                                           model.Organization
		subID, plan, status                         sql.NullString
		start                                       sql.NullTime
		end, trialEnd                               *time.Time
		maxUsers, maxDonors, maxForms, maxCampaigns sql.NullInt64
	)
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Email, &o.Logo, &o.Website, &o.Description, &o.Phone,
		&o.Address, &o.City, &o.Province, &o.PostalCode, &o.Country, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
		&subID, &plan, &status, &start, &end, &trialEnd,
		&maxUsers, &maxDonors, &maxForms, &maxCampaigns)
	if err != nil {
		return nil, err
	}
	if subID.Valid {
		o.Subscription = &model.OrganizationSubscription{
			ID:             subID.String,
			OrganizationID: o.ID,
			Plan:           model.Plan(plan.String),
			Status:         model.OrganizationSubscriptionStatus(status.String),
			StartDate:      start.Time,
			EndDate:        end,
			TrialEndDate:   trialEnd,
			MaxUsers:       int(maxUsers.Int64),
			MaxDonors:      int(maxDonors.Int64),
			MaxForms:       int(maxForms.Int64),
			MaxCampaigns:   int(maxCampaigns.Int64),
		}
	}
	return &o, nil
}

var _ OrganizationRepositoryInterface = (*OrganizationRepository)(nil)
