// Package workflow parses and checks the trigger/action graphs saved by the workflow editor.
package workflow

import (
	"encoding/json"
	"fmt"
)

type TriggerType string

const (
	TriggerNewDonator          TriggerType = "new_donator"
	TriggerDonationAnniversary TriggerType = "donation_anniversary"
	TriggerSegmentEntered      TriggerType = "segment_entered"
	TriggerCampaignClicked     TriggerType = "campaign_clicked"
)

type ActionType string

const (
	ActionSendEmail    ActionType = "send_email"
	ActionSendSMS      ActionType = "send_sms"
	ActionWaitDays     ActionType = "wait_days"
	ActionAddToSegment ActionType = "add_to_segment"
)

var knownTriggers = map[TriggerType]bool{
	TriggerNewDonator:          true,
	TriggerDonationAnniversary: true,
	TriggerSegmentEntered:      true,
	TriggerCampaignClicked:     true,
}

var knownActions = map[ActionType]bool{
	ActionSendEmail:    true,
	ActionSendSMS:      true,
	ActionWaitDays:     true,
	ActionAddToSegment: true,
}

const (
	NodeTrigger = "trigger"
	NodeAction  = "action"
)

type NodeData struct {
	Label       string         `json:"label"`
	TriggerType TriggerType    `json:"triggerType,omitempty"`
	ActionType  ActionType     `json:"actionType,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

type Node struct {
	ID   string   `json:"id"`
	Type string   `json:"type,omitempty"`
	Data NodeData `json:"data"`
}

type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Parse decodes the stored node and edge lists. Empty documents are empty lists.
func Parse(nodes, edges json.RawMessage) (*Graph, error) {
	g := &Graph{}
	if len(nodes) > 0 && string(nodes) != "null" {
		if err := json.Unmarshal(nodes, &g.Nodes); err != nil {
			return nil, fmt.Errorf("invalid workflow nodes: %w", err)
		}
	}
	if len(edges) > 0 && string(edges) != "null" {
		if err := json.Unmarshal(edges, &g.Edges); err != nil {
			return nil, fmt.Errorf("invalid workflow edges: %w", err)
		}
	}
	return g, nil
}

// Validate checks node ids are unique and non-empty, node kinds are known and
// every edge connects existing nodes.
func (g *Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node without id")
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true

		switch n.Type {
		case NodeTrigger:
			if n.Data.TriggerType != "" && !knownTriggers[n.Data.TriggerType] {
				return fmt.Errorf("node %q: unknown trigger %q", n.ID, n.Data.TriggerType)
			}
		case NodeAction:
			if n.Data.ActionType != "" && !knownActions[n.Data.ActionType] {
				return fmt.Errorf("node %q: unknown action %q", n.ID, n.Data.ActionType)
			}
		}
	}
	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			return fmt.Errorf("edge %s -> %s references a missing node", e.Source, e.Target)
		}
	}
	return nil
}

// Triggers returns the trigger nodes in declaration order.
func (g *Graph) Triggers() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Type == NodeTrigger {
			out = append(out, n)
		}
	}
	return out
}

// ExecuteContext describes what fired a workflow run.
type ExecuteContext struct {
	DonatorID   string         `json:"donator_id,omitempty"`
	TriggerType string         `json:"trigger_type,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}
