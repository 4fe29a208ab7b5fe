// Package models defines the core domain models for node-based workflow documents.
package models

// Node is a single typed node inside a workflow graph. Identity is Name,
// which must be unique within a workflow. Nodes are treated as immutable
// once constructed.
type Node struct {
	ID          string                   `json:"id,omitempty"`
	Name        string                   `json:"name"        validate:"required,min=1"`
	Type        string                   `json:"type"        validate:"required"`
	TypeVersion int                      `json:"typeVersion"`
	Position    [2]float64               `json:"position"`
	Parameters  map[string]any           `json:"parameters"`
	Credentials map[string]CredentialRef `json:"credentials,omitempty"`
	Disabled    bool                     `json:"disabled,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
}

// CredentialRef points at a credential managed elsewhere. The core stores and
// echoes it verbatim; it never inspects or decrypts credential contents.
type CredentialRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CredentialTypes returns the credential type keys declared on the node.
func (n *Node) CredentialTypes() []string {
	if len(n.Credentials) == 0 {
		return nil
	}

	types := make([]string, 0, len(n.Credentials))
	for credType := range n.Credentials {
		types = append(types, credType)
	}

	return types
}
