package versioning

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

// ChangeSet describes the differences between two workflow documents.
type ChangeSet struct {
	NodesAdded         []string `json:"nodesAdded"`
	NodesRemoved       []string `json:"nodesRemoved"`
	NodesModified      []string `json:"nodesModified"`
	ConnectionsChanged bool     `json:"connectionsChanged"`
	SettingsChanged    bool     `json:"settingsChanged"`
	BreakingChanges    bool     `json:"breakingChanges"`
}

// HasChanges reports whether any difference was detected.
func (c ChangeSet) HasChanges() bool {
	return len(c.NodesAdded) > 0 || len(c.NodesRemoved) > 0 || len(c.NodesModified) > 0 ||
		c.ConnectionsChanged || c.SettingsChanged
}

// DetectChanges compares two workflows. Node sets are compared by name;
// nodes present in both count as modified when their full record differs.
// Removed nodes or changed connections are breaking.
func DetectChanges(a, b *models.Workflow) ChangeSet {
	aNodes := nodesByName(a)
	bNodes := nodesByName(b)

	var changes ChangeSet

	for name := range bNodes {
		if _, ok := aNodes[name]; !ok {
			changes.NodesAdded = append(changes.NodesAdded, name)
		}
	}

	for name, aNode := range aNodes {
		bNode, ok := bNodes[name]
		if !ok {
			changes.NodesRemoved = append(changes.NodesRemoved, name)

			continue
		}

		if !jsonEqual(aNode, bNode) {
			changes.NodesModified = append(changes.NodesModified, name)
		}
	}

	sort.Strings(changes.NodesAdded)
	sort.Strings(changes.NodesRemoved)
	sort.Strings(changes.NodesModified)

	changes.ConnectionsChanged = !jsonEqual(a.Connections, b.Connections)
	changes.SettingsChanged = !jsonEqual(a.Settings, b.Settings)
	changes.BreakingChanges = len(changes.NodesRemoved) > 0 || changes.ConnectionsChanged

	return changes
}

// SuggestVersionBump maps a change set to a bump type: breaking changes need
// a major bump, additions or settings changes a minor one, anything else a
// patch.
func SuggestVersionBump(a, b *models.Workflow) BumpType {
	changes := DetectChanges(a, b)

	switch {
	case changes.BreakingChanges:
		return BumpMajor
	case len(changes.NodesAdded) > 0 || changes.SettingsChanged:
		return BumpMinor
	default:
		return BumpPatch
	}
}

func nodesByName(wf *models.Workflow) map[string]*models.Node {
	nodes := make(map[string]*models.Node, len(wf.Nodes))
	for i := range wf.Nodes {
		nodes[wf.Nodes[i].Name] = &wf.Nodes[i]
	}

	return nodes
}

// jsonEqual deep-compares two values through their JSON serialization, which
// normalizes map ordering and numeric types.
func jsonEqual(a, b any) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)

	if errA != nil || errB != nil {
		return false
	}

	return bytes.Equal(aJSON, bJSON)
}
