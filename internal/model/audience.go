// internal/model/audience.go
package model

import (
	"encoding/json"
	"time"
)

type AudienceType string

const (
	AudienceStatic  AudienceType = "STATIC"
	AudienceDynamic AudienceType = "DYNAMIC"
)

// Audience is a saved donor filter. Segments and audiences are the same records.
type Audience struct {
	ID                 string          `db:"id" json:"id"`
	OrganizationID     string          `db:"organization_id" json:"organization_id"`
	Name               string          `db:"name" json:"name"`
	Description        *string         `db:"description" json:"description"`
	Type               AudienceType    `db:"type" json:"type"`
	Rules              json.RawMessage `db:"rules" json:"rules,omitempty"`
	CachedDonatorCount *int            `db:"cached_donator_count" json:"cached_donator_count,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`

	// MemberCount is filled by list queries for static audiences.
	MemberCount int `db:"-" json:"-"`
}

// DonatorCount is the member count for static audiences and the cached count for
// dynamic ones. Nil means a dynamic audience was never refreshed.
func (a *Audience) DonatorCount() *int {
	if a.Type == AudienceStatic {
		n := a.MemberCount
		return &n
	}
	return a.CachedDonatorCount
}

type SegmentSuggestion struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	Description    *string         `db:"description" json:"description"`
	Rules          json.RawMessage `db:"rules" json:"rules,omitempty"`
	IsAccepted     bool            `db:"is_accepted" json:"is_accepted"`
	AcceptedAt     *time.Time      `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
