// internal/model/donator.go
package model

import "time"

type Donator struct {
	ID                string     `db:"id" json:"id"`
	OrganizationID    string     `db:"organization_id" json:"organization_id"`
	Email             string     `db:"email" json:"email"`
	FirstName         *string    `db:"first_name" json:"first_name"`
	LastName          *string    `db:"last_name" json:"last_name"`
	TotalDonations    float64    `db:"total_donations" json:"total_donations"`
	DonationCount     int        `db:"donation_count" json:"donation_count"`
	FirstDonationDate *time.Time `db:"first_donation_date" json:"first_donation_date,omitempty"`
	LastDonationDate  *time.Time `db:"last_donation_date" json:"last_donation_date,omitempty"`
	Segment           *string    `db:"segment" json:"segment,omitempty"`
	Score             int        `db:"score" json:"score"`
	Country           *string    `db:"country" json:"country,omitempty"`
	PreferredLanguage *string    `db:"preferred_language" json:"preferred_language,omitempty"`
	UnsubscribedAt    *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
}

// DisplayName joins first and last name, falling back to the email.
func (d *Donator) DisplayName() string {
	name := ""
	if d.FirstName != nil {
		name = *d.FirstName
	}
	if d.LastName != nil && *d.LastName != "" {
		if name != "" {
			name += " "
		}
		name += *d.LastName
	}
	if name == "" {
		return d.Email
	}
	return name
}
