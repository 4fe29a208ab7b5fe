package models

// Workflow is the full workflow document in its wire format. Field names and
// nesting are fixed: external collaborators parse this structure
// independently.
type Workflow struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name" validate:"required"`
	Active      bool           `json:"active,omitempty"`
	Nodes       []Node         `json:"nodes" validate:"required,dive"`
	Connections ConnectionMap  `json:"connections"`
	Settings    map[string]any `json:"settings"`
	Meta        map[string]any `json:"meta,omitempty"`
	VersionID   string         `json:"versionId,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// NodeByName returns the node with the given name, or nil.
func (w *Workflow) NodeByName(name string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].Name == name {
			return &w.Nodes[i]
		}
	}

	return nil
}

// WorkflowMetadata carries the document-level fields of a parsed workflow.
type WorkflowMetadata struct {
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
}

// ParsedWorkflow is the read-only analysis result produced by a single parse
// call. It is built fresh per call and discarded after use; it is not a
// persistent entity.
type ParsedWorkflow struct {
	Metadata    WorkflowMetadata
	Nodes       map[string]*Node
	NodeOrder   []string // declaration order of first occurrence
	Connections []Connection

	TriggerNodes            []string
	RequiredCredentialTypes []string
	ExecutionOrder          []string

	cyclic    bool
	cyclePath []string
}

// SetCycle records a detected circular dependency and its path.
func (p *ParsedWorkflow) SetCycle(path []string) {
	p.cyclic = true
	p.cyclePath = path
}

// HasCircularDependencies reports whether the graph reachable from the
// workflow's nodes contains a cycle, and if so, the cycle path.
func (p *ParsedWorkflow) HasCircularDependencies() (bool, []string) {
	return p.cyclic, p.cyclePath
}
