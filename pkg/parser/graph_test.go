package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

func conn(source, target string) models.Connection {
	return models.Connection{
		SourceNode:     source,
		TargetNode:     target,
		ConnectionType: models.DefaultConnectionType,
	}
}

func TestDependencyGraph_DetectCycle(t *testing.T) {
	testCases := []struct {
		name        string
		order       []string
		connections []models.Connection
		wantCyclic  bool
		wantPath    []string
	}{
		{
			name:        "empty graph",
			order:       nil,
			connections: nil,
			wantCyclic:  false,
		},
		{
			name:        "linear chain",
			order:       []string{"A", "B", "C"},
			connections: []models.Connection{conn("A", "B"), conn("B", "C")},
			wantCyclic:  false,
		},
		{
			name:        "diamond is acyclic",
			order:       []string{"A", "B", "C", "D"},
			connections: []models.Connection{conn("A", "B"), conn("A", "C"), conn("B", "D"), conn("C", "D")},
			wantCyclic:  false,
		},
		{
			name:        "self loop",
			order:       []string{"A"},
			connections: []models.Connection{conn("A", "A")},
			wantCyclic:  true,
			wantPath:    []string{"A"},
		},
		{
			name:        "two node cycle",
			order:       []string{"A", "B"},
			connections: []models.Connection{conn("A", "B"), conn("B", "A")},
			wantCyclic:  true,
			wantPath:    []string{"A", "B"},
		},
		{
			name:        "cycle reached from a prefix",
			order:       []string{"Start", "B", "C"},
			connections: []models.Connection{conn("Start", "B"), conn("B", "C"), conn("C", "B")},
			wantCyclic:  true,
			wantPath:    []string{"B", "C"},
		},
		{
			name:        "cycle in second component",
			order:       []string{"A", "X", "Y"},
			connections: []models.Connection{conn("X", "Y"), conn("Y", "X")},
			wantCyclic:  true,
			wantPath:    []string{"X", "Y"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(tc.order, tc.connections)

			cyclic, path := g.detectCycle()
			assert.Equal(t, tc.wantCyclic, cyclic)

			if tc.wantCyclic {
				assert.Equal(t, tc.wantPath, path)
			} else {
				assert.Nil(t, path)
			}
		})
	}
}

func TestDependencyGraph_TopologicalOrder(t *testing.T) {
	testCases := []struct {
		name         string
		order        []string
		connections  []models.Connection
		wantOrdered  []string
		wantResidual []string
	}{
		{
			name:        "linear chain follows edges",
			order:       []string{"Start", "N1", "N2", "N3"},
			connections: []models.Connection{conn("Start", "N1"), conn("N1", "N2"), conn("N2", "N3")},
			wantOrdered: []string{"Start", "N1", "N2", "N3"},
		},
		{
			name:        "declaration order breaks ties",
			order:       []string{"B", "A", "C"},
			connections: nil,
			wantOrdered: []string{"B", "A", "C"},
		},
		{
			name:         "cycle nodes stay residual",
			order:        []string{"A", "B", "C"},
			connections:  []models.Connection{conn("A", "B"), conn("B", "C"), conn("C", "B")},
			wantOrdered:  []string{"A"},
			wantResidual: []string{"B", "C"},
		},
		{
			name:        "diamond orders both branches before the join",
			order:       []string{"A", "B", "C", "D"},
			connections: []models.Connection{conn("A", "B"), conn("A", "C"), conn("B", "D"), conn("C", "D")},
			wantOrdered: []string{"A", "B", "C", "D"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(tc.order, tc.connections)

			ordered, residual := g.topologicalOrder()
			assert.Equal(t, tc.wantOrdered, ordered)
			assert.Equal(t, tc.wantResidual, residual)
		})
	}
}

func TestDependencyGraph_IsIsolated(t *testing.T) {
	g := buildGraph([]string{"A", "B", "C"}, []models.Connection{conn("A", "B")})

	assert.False(t, g.isIsolated("A"))
	assert.False(t, g.isIsolated("B"))
	assert.True(t, g.isIsolated("C"))
}

func TestConnectionMap_FlattenIsDeterministic(t *testing.T) {
	cm := models.ConnectionMap{
		"Z": {"main": {{{Node: "A", Type: "main", Index: 0}}}},
		"A": {
			"main":  {{{Node: "B", Type: "main", Index: 0}}},
			"error": {{{Node: "C", Type: "error", Index: 0}}},
		},
	}

	first := cm.Flatten()
	require.Len(t, first, 3)

	// sorted by source name, then connection type
	assert.Equal(t, "A", first[0].SourceNode)
	assert.Equal(t, "error", first[0].ConnectionType)
	assert.Equal(t, "A", first[1].SourceNode)
	assert.Equal(t, "main", first[1].ConnectionType)
	assert.Equal(t, "Z", first[2].SourceNode)

	for range 10 {
		assert.Equal(t, first, cm.Flatten())
	}
}
