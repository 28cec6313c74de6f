package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndValidate(t *testing.T) {
	nodes := json.RawMessage(`[
		{"id":"t1","type":"trigger","data":{"label":"New donor","triggerType":"new_donator"},"position":{"x":0,"y":0}},
		{"id":"a1","type":"action","data":{"label":"Welcome","actionType":"send_email","config":{"templateId":"tpl"}}}
	]`)
	edges := json.RawMessage(`[{"id":"e1","source":"t1","target":"a1"}]`)

	g, err := Parse(nodes, edges)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	triggers := g.Triggers()
	require.Len(t, triggers, 1)
	assert.Equal(t, TriggerNewDonator, triggers[0].Data.TriggerType)
	assert.Equal(t, "tpl", g.Nodes[1].Data.Config["templateId"])
}

func TestParse_EmptyDocuments(t *testing.T) {
	g, err := Parse(nil, json.RawMessage("null"))
	require.NoError(t, err)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.NoError(t, g.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]Graph{
		"missing id": {Nodes: []Node{{Type: NodeAction}}},
		"duplicate id": {Nodes: []Node{
			{ID: "n", Type: NodeTrigger},
			{ID: "n", Type: NodeAction},
		}},
		"unknown trigger": {Nodes: []Node{{ID: "t", Type: NodeTrigger, Data: NodeData{TriggerType: "birthday"}}}},
		"unknown action":  {Nodes: []Node{{ID: "a", Type: NodeAction, Data: NodeData{ActionType: "send_fax"}}}},
		"dangling edge": {
			Nodes: []Node{{ID: "t", Type: NodeTrigger}},
			Edges: []Edge{{Source: "t", Target: "ghost"}},
		},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, g.Validate())
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse(json.RawMessage(`{"id":1}`), nil)
	assert.Error(t, err)
}
