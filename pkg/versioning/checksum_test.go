package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

func sampleWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:        "wf-1",
		Name:      "Sample",
		Active:    true,
		VersionID: "v-1",
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
		Meta:      map[string]any{"instanceId": "abc"},
		Settings:  map[string]any{"timezone": "UTC"},
		Nodes: []models.Node{
			{
				Name:        "Start",
				Type:        "n8n-nodes-base.manualTrigger",
				TypeVersion: 1,
				Position:    [2]float64{250, 300},
				Parameters:  map[string]any{},
			},
			{
				Name:        "Set",
				Type:        "n8n-nodes-base.set",
				TypeVersion: 2,
				Position:    [2]float64{450, 300},
				Parameters:  map[string]any{"value": "x"},
			},
		},
		Connections: models.ConnectionMap{
			"Start": {"main": {{{Node: "Set", Type: "main", Index: 0}}}},
		},
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	wf := sampleWorkflow()

	first, err := Checksum(wf)
	require.NoError(t, err)
	assert.Len(t, first, 64) // hex sha-256

	second, err := Checksum(wf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChecksum_IgnoresVolatileFields(t *testing.T) {
	base, err := Checksum(sampleWorkflow())
	require.NoError(t, err)

	mutations := []struct {
		name   string
		mutate func(*models.Workflow)
	}{
		{"id", func(wf *models.Workflow) { wf.ID = "other-id" }},
		{"versionId", func(wf *models.Workflow) { wf.VersionID = "other-version" }},
		{"createdAt", func(wf *models.Workflow) { wf.CreatedAt = "1999-01-01T00:00:00Z" }},
		{"updatedAt", func(wf *models.Workflow) { wf.UpdatedAt = "1999-01-01T00:00:00Z" }},
		{"meta", func(wf *models.Workflow) { wf.Meta = map[string]any{"instanceId": "zzz"} }},
	}

	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			wf := sampleWorkflow()
			tc.mutate(wf)

			sum, err := Checksum(wf)
			require.NoError(t, err)
			assert.Equal(t, base, sum)
		})
	}
}

func TestChecksum_SensitiveToContent(t *testing.T) {
	base, err := Checksum(sampleWorkflow())
	require.NoError(t, err)

	mutations := []struct {
		name   string
		mutate func(*models.Workflow)
	}{
		{"name", func(wf *models.Workflow) { wf.Name = "Renamed" }},
		{"node parameter", func(wf *models.Workflow) { wf.Nodes[1].Parameters["value"] = "y" }},
		{"node removed", func(wf *models.Workflow) { wf.Nodes = wf.Nodes[:1] }},
		{"connection", func(wf *models.Workflow) {
			wf.Connections.Add(models.Connection{SourceNode: "Set", TargetNode: "Start"})
		}},
		{"settings", func(wf *models.Workflow) { wf.Settings["timezone"] = "CET" }},
		{"active flag", func(wf *models.Workflow) { wf.Active = false }},
	}

	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			wf := sampleWorkflow()
			tc.mutate(wf)

			sum, err := Checksum(wf)
			require.NoError(t, err)
			assert.NotEqual(t, base, sum)
		})
	}
}
