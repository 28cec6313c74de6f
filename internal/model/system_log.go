// internal/model/system_log.go
package model

import (
	"encoding/json"
	"time"
)

type LogLevel string

const (
	LogInfo     LogLevel = "info"
	LogWarning  LogLevel = "warning"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

type SystemLog struct {
	ID             string          `db:"id" json:"id"`
	Type           string          `db:"type" json:"type"`
	Level          LogLevel        `db:"level" json:"level"`
	Message        string          `db:"message" json:"message"`
	Details        json.RawMessage `db:"details" json:"details,omitempty"`
	OrganizationID *string         `db:"organization_id" json:"organization_id,omitempty"`
	UserID         *string         `db:"user_id" json:"user_id,omitempty"`
	IPAddress      *string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent      *string         `db:"user_agent" json:"user_agent,omitempty"`
	Endpoint       *string         `db:"endpoint" json:"endpoint,omitempty"`
	Method         *string         `db:"method" json:"method,omitempty"`
	StatusCode     *int            `db:"status_code" json:"status_code,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
