// internal/model/subscription.go
package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPaused    SubscriptionStatus = "PAUSED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionPaused, SubscriptionCancelled, SubscriptionExpired:
		return true
	}
	return false
}

// Subscription is a donor's recurring donation.
type Subscription struct {
	ID                 string             `db:"id" json:"id"`
	OrganizationID     string             `db:"organization_id" json:"organization_id"`
	DonatorID          string             `db:"donator_id" json:"donator_id"`
	DonatorEmail       string             `db:"-" json:"donator_email"`
	DonatorName        string             `db:"-" json:"donator_name"`
	FormID             string             `db:"form_id" json:"form_id"`
	FormTitle          string             `db:"form_title" json:"form_title"`
	Amount             float64            `db:"amount" json:"amount"`
	Currency           string             `db:"currency" json:"currency"`
	Frequency          string             `db:"frequency" json:"frequency"`
	Gateway            string             `db:"gateway" json:"gateway"`
	Status             SubscriptionStatus `db:"status" json:"status"`
	StartDate          time.Time          `db:"start_date" json:"start_date"`
	NextPaymentDate    time.Time          `db:"next_payment_date" json:"next_payment_date"`
	EndDate            *time.Time         `db:"end_date" json:"end_date,omitempty"`
	CancelledAt        *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string            `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	DonationCount      int                `db:"donation_count" json:"donation_count"`
}
