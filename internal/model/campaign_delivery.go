// internal/model/campaign_delivery.go
package model

import "time"

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// CampaignDelivery tracks one rendered campaign email for one donator.
// The (campaign, donator) pair is unique so redelivered jobs do not send twice.
type CampaignDelivery struct {
	ID              string         `db:"id" json:"id"`
	CampaignID      string         `db:"campaign_id" json:"campaign_id"`
	DonatorID       string         `db:"donator_id" json:"donator_id"`
	Status          DeliveryStatus `db:"status" json:"status"`
	RenderedContent *string        `db:"rendered_content" json:"rendered_content,omitempty"`
	LastError       *string        `db:"last_error" json:"last_error,omitempty"`
	RetryCount      int            `db:"retry_count" json:"retry_count"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
