// internal/model/organization.go
package model

import "time"

type Plan string

const (
	PlanFree         Plan = "FREE"
	PlanStarter      Plan = "STARTER"
	PlanProfessional Plan = "PROFESSIONAL"
	PlanEnterprise   Plan = "ENTERPRISE"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

type OrganizationSubscriptionStatus string

const (
	OrgSubscriptionActive   OrganizationSubscriptionStatus = "ACTIVE"
	OrgSubscriptionTrial    OrganizationSubscriptionStatus = "TRIAL"
	OrgSubscriptionCanceled OrganizationSubscriptionStatus = "CANCELED"
	OrgSubscriptionExpired  OrganizationSubscriptionStatus = "EXPIRED"
)

func (s OrganizationSubscriptionStatus) Valid() bool {
	switch s {
	case OrgSubscriptionActive, OrgSubscriptionTrial, OrgSubscriptionCanceled, OrgSubscriptionExpired:
		return true
	}
	return false
}

type Organization struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Email       string    `db:"email" json:"email"`
	Logo        *string   `db:"logo" json:"logo,omitempty"`
	Website     *string   `db:"website" json:"website,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	City        *string   `db:"city" json:"city,omitempty"`
	Province    *string   `db:"province" json:"province,omitempty"`
	PostalCode  *string   `db:"postal_code" json:"postal_code,omitempty"`
	Country     string    `db:"country" json:"country"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Subscription *OrganizationSubscription `db:"-" json:"subscription"`
}

// OrganizationSubscription is the SaaS plan of an organization (one per organization).
type OrganizationSubscription struct {
	ID             string                         `db:"id" json:"id"`
	OrganizationID string                         `db:"organization_id" json:"organization_id"`
	Plan           Plan                           `db:"plan" json:"plan"`
	Status         OrganizationSubscriptionStatus `db:"status" json:"status"`
	StartDate      time.Time                      `db:"start_date" json:"start_date"`
	EndDate        *time.Time                     `db:"end_date" json:"end_date,omitempty"`
	TrialEndDate   *time.Time                     `db:"trial_end_date" json:"trial_end_date,omitempty"`
	MaxUsers       int                            `db:"max_users" json:"max_users"`
	MaxDonors      int                            `db:"max_donors" json:"max_donors"`
	MaxForms       int                            `db:"max_forms" json:"max_forms"`
	MaxCampaigns   int                            `db:"max_campaigns" json:"max_campaigns"`
}

// Plan limits applied when a subscription is created without explicit values.
const (
	DefaultMaxUsers     = 5
	DefaultMaxDonors    = 1000
	DefaultMaxForms     = 3
	DefaultMaxCampaigns = 5
	DefaultCountry      = "CA"
)
