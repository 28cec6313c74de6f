// internal/model/workflow.go
package model

import (
	"encoding/json"
	"time"
)

type WorkflowStatus string

const (
	WorkflowDraft  WorkflowStatus = "DRAFT"
	WorkflowActive WorkflowStatus = "ACTIVE"
	WorkflowPaused WorkflowStatus = "PAUSED"
)

func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowDraft, WorkflowActive, WorkflowPaused:
		return true
	}
	return false
}

// Workflow keeps its graph as the editor's raw JSON node and edge lists.
type Workflow struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	Status         WorkflowStatus  `db:"status" json:"status"`
	Nodes          json.RawMessage `db:"nodes" json:"nodes"`
	Edges          json.RawMessage `db:"edges" json:"edges"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
