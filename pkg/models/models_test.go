package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_JSONWireFormat(t *testing.T) {
	raw := `{
		"name": "Fetch",
		"type": "n8n-nodes-base.httpRequest",
		"typeVersion": 4,
		"position": [450, 300],
		"parameters": {"url": "https://example.com"},
		"credentials": {"httpBasicAuth": {"id": "c1", "name": "api"}},
		"disabled": true,
		"notes": "throttled upstream"
	}`

	var node Node

	require.NoError(t, json.Unmarshal([]byte(raw), &node))
	assert.Equal(t, "Fetch", node.Name)
	assert.Equal(t, 4, node.TypeVersion)
	assert.Equal(t, [2]float64{450, 300}, node.Position)
	assert.Equal(t, "api", node.Credentials["httpBasicAuth"].Name)
	assert.True(t, node.Disabled)

	assert.Equal(t, []string{"httpBasicAuth"}, node.CredentialTypes())
}

func TestNode_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	valid := Node{Name: "A", Type: "n8n-nodes-base.set", TypeVersion: 1}
	assert.NoError(t, validate.Struct(valid))

	missingName := Node{Type: "n8n-nodes-base.set"}
	assert.Error(t, validate.Struct(missingName))

	missingType := Node{Name: "A"}
	assert.Error(t, validate.Struct(missingType))
}

func TestNode_CredentialTypes_Empty(t *testing.T) {
	node := Node{Name: "A", Type: "t"}
	assert.Nil(t, node.CredentialTypes())
}

func TestWorkflow_NodeByName(t *testing.T) {
	wf := Workflow{
		Name: "W",
		Nodes: []Node{
			{Name: "A", Type: "t"},
			{Name: "B", Type: "t"},
		},
	}

	found := wf.NodeByName("B")
	require.NotNil(t, found)
	assert.Equal(t, "B", found.Name)

	// returned pointer aliases the stored node
	found.Notes = "touched"
	assert.Equal(t, "touched", wf.Nodes[1].Notes)

	assert.Nil(t, wf.NodeByName("missing"))
}

func TestConnectionMap_AddThenFlattenRoundTrip(t *testing.T) {
	cm := make(ConnectionMap)

	cm.Add(Connection{SourceNode: "A", TargetNode: "B"})
	cm.Add(Connection{SourceNode: "A", TargetNode: "C", SourceOutput: 2, TargetInput: 1})
	cm.Add(Connection{SourceNode: "B", TargetNode: "C", ConnectionType: "error"})

	flat := cm.Flatten()
	require.Len(t, flat, 3)

	assert.Equal(t, Connection{
		SourceNode: "A", TargetNode: "B", ConnectionType: DefaultConnectionType,
	}, flat[0])
	assert.Equal(t, Connection{
		SourceNode: "A", TargetNode: "C", SourceOutput: 2, TargetInput: 1, ConnectionType: DefaultConnectionType,
	}, flat[1])
	assert.Equal(t, Connection{
		SourceNode: "B", TargetNode: "C", ConnectionType: "error",
	}, flat[2])

	// intermediate output slots exist but stay empty
	require.Len(t, cm["A"][DefaultConnectionType], 3)
	assert.Empty(t, cm["A"][DefaultConnectionType][1])
}

func TestConnectionMap_Flatten_Empty(t *testing.T) {
	assert.Nil(t, ConnectionMap{}.Flatten())
	assert.Nil(t, ConnectionMap(nil).Flatten())
}

func TestParsedWorkflow_CycleState(t *testing.T) {
	var parsed ParsedWorkflow

	cyclic, path := parsed.HasCircularDependencies()
	assert.False(t, cyclic)
	assert.Nil(t, path)

	parsed.SetCycle([]string{"B", "C"})

	cyclic, path = parsed.HasCircularDependencies()
	assert.True(t, cyclic)
	assert.Equal(t, []string{"B", "C"}, path)
}
