// internal/model/email_campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignSending   CampaignStatus = "SENDING"
	CampaignSent      CampaignStatus = "SENT"
	CampaignCanceled  CampaignStatus = "CANCELED"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignScheduled, CampaignSending, CampaignSent, CampaignCanceled:
		return true
	}
	return false
}

type EmailCampaign struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"organization_id"`
	Name           string         `db:"name" json:"name"`
	Subject        string         `db:"subject" json:"subject"`
	FromName       string         `db:"from_name" json:"from_name"`
	FromEmail      string         `db:"from_email" json:"from_email"`
	TemplateID     string         `db:"template_id" json:"template_id"`
	AudienceID     string         `db:"audience_id" json:"audience_id"`
	Status         CampaignStatus `db:"status" json:"status"`
	ScheduledAt    *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SentAt         *time.Time     `db:"sent_at" json:"sent_at,omitempty"`
	Stats          CampaignStats  `db:"stats" json:"stats"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`

	// Filled by list queries.
	TemplateName string `db:"-" json:"template_name,omitempty"`
	AudienceName string `db:"-" json:"audience_name,omitempty"`
}

// CampaignStats is stored as a JSON document on the campaign row.
type CampaignStats struct {
	Sent         int `json:"sent"`
	Delivered    int `json:"delivered"`
	Opened       int `json:"opened"`
	Clicked      int `json:"clicked"`
	Bounced      int `json:"bounced"`
	Unsubscribed int `json:"unsubscribed"`
}

// Rate returns part as a rounded percentage of the sent count.
func (s CampaignStats) Rate(part int) int {
	if s.Sent <= 0 {
		return 0
	}
	return int(float64(part)/float64(s.Sent)*100 + 0.5)
}
