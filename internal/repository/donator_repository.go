package repository

import (
	"context"
	"database/sql"
	"fmt"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/segmentation"
)

// DonatorRepositoryInterface covers the donor reads needed for segments and campaign sends.
// Donor writes belong to the backend API.
type DonatorRepositoryInterface interface {
	GetByID(ctx context.Context, organizationID, id string) (*model.Donator, error)
	CountMatching(ctx context.Context, p segmentation.Predicate) (int, error)
	ListMatching(ctx context.Context, p segmentation.Predicate, limit int) ([]*model.Donator, error)
	ListAudienceMembers(ctx context.Context, audienceID string, limit int) ([]*model.Donator, error)
}

type DonatorRepository struct {
	DB *sql.DB
}

const donatorColumns = `d.id, d.organization_id, d.email, d.first_name, d.last_name, d.total_donations,
	d.donation_count, d.first_donation_date, d.last_donation_date, d.segment, d.score, d.country,
	d.preferred_language, d.unsubscribed_at`

func (r *DonatorRepository) GetByID(ctx context.Context, organizationID, id string) (*model.Donator, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+donatorColumns+` FROM donators d WHERE d.id = $1 AND d.organization_id = $2`,
		id, organizationID)
	d, err := scanDonator(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("donator", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donator: %w", err)
	}
	return d, nil
}

// CountMatching counts donators selected by a compiled segment predicate.
func (r *DonatorRepository) CountMatching(ctx context.Context, p segmentation.Predicate) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM donators WHERE `+p.SQL, p.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to evaluate segment: %w", err)
	}
	return n, nil
}

// ListMatching returns donators selected by p. limit <= 0 returns all of them.
func (r *DonatorRepository) ListMatching(ctx context.Context, p segmentation.Predicate, limit int) ([]*model.Donator, error) {
	query := `SELECT ` + donatorColumns + ` FROM donators d WHERE ` + p.SQL + ` ORDER BY d.email`
	args := p.Args
	if limit > 0 {
		args = append(append([]any{}, p.Args...), limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list segment donators: %w", err)
	}
	defer rows.Close()
	return scanDonators(rows)
}

// ListAudienceMembers returns the members of a static audience. limit <= 0 returns all of them.
func (r *DonatorRepository) ListAudienceMembers(ctx context.Context, audienceID string, limit int) ([]*model.Donator, error) {
	query := `SELECT ` + donatorColumns + `
		FROM donators d JOIN audience_donators ad ON ad.donator_id = d.id
		WHERE ad.audience_id = $1 ORDER BY d.email`
	args := []any{audienceID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audience members: %w", err)
	}
	defer rows.Close()
	return scanDonators(rows)
}

func scanDonator(row rowScanner) (*model.Donator, error) {
	var d model.Donator
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Email, &d.FirstName, &d.LastName, &d.TotalDonations,
		&d.DonationCount, &d.FirstDonationDate, &d.LastDonationDate, &d.Segment, &d.Score, &d.Country,
		&d.PreferredLanguage, &d.UnsubscribedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDonators(rows *sql.Rows) ([]*model.Donator, error) {
	out := []*model.Donator{}
	for rows.Next() {
		d, err := scanDonator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donator: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ DonatorRepositoryInterface = (*DonatorRepository)(nil)
