// internal/model/email_template.go
package model

import (
	"encoding/json"
	"time"
)

type EmailTemplate struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	Description    *string         `db:"description" json:"description"`
	Content        json.RawMessage `db:"content" json:"content"`
	HTML           string          `db:"html" json:"html"`
	Thumbnail      *string         `db:"thumbnail" json:"thumbnail"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
