package parser

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

// TriggerTypeHints is the substring list used to classify a node as a
// workflow trigger. Matching is a permissive heuristic inherited from the
// document format: custom node types whose names don't contain any of these
// substrings are classified as regular nodes. Embedders may extend the list.
var TriggerTypeHints = []string{"trigger", "webhook", "cron", "manual"}

// Parser validates raw workflow JSON documents. A Parser is stateless across
// calls and safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}

	return &Parser{logger: logger}
}

// rawDocument is the loosely typed top-level view of a workflow document.
// Nodes stay as raw maps so individual malformed nodes can be reported and
// dropped without aborting the parse.
type rawDocument struct {
	Name        string               `json:"name"`
	Active      bool                 `json:"active"`
	CreatedAt   string               `json:"createdAt"`
	UpdatedAt   string               `json:"updatedAt"`
	Tags        []string             `json:"tags"`
	Settings    map[string]any       `json:"settings"`
	Nodes       *[]json.RawMessage   `json:"nodes"`
	Connections models.ConnectionMap `json:"connections"`
}

// Parse validates raw against the workflow document rules and returns the
// analysis result plus every diagnostic found in the pass.
//
// In strict mode any accumulated error aborts with a StrictModeError carrying
// the full diagnostic list. In non-strict mode the best-effort result is
// returned alongside the diagnostics and callers decide what to do with them.
// A missing top-level nodes array is fatal in both modes.
func (p *Parser) Parse(raw []byte, strict bool) (*models.ParsedWorkflow, []Diagnostic, error) {
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, &StructuralError{Msg: "malformed workflow JSON: " + err.Error()}
	}

	if doc.Nodes == nil {
		return nil, nil, &StructuralError{Field: "nodes", Msg: "required nodes array is missing"}
	}

	diags := &diagnostics{}

	parsed := &models.ParsedWorkflow{
		Metadata: models.WorkflowMetadata{
			Name:      doc.Name,
			Active:    doc.Active,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
			Tags:      doc.Tags,
			Settings:  doc.Settings,
		},
		Nodes: make(map[string]*models.Node, len(*doc.Nodes)),
	}

	p.extractNodes(parsed, *doc.Nodes, diags)
	p.extractConnections(parsed, doc.Connections, diags)
	p.analyze(parsed, diags)

	if strict && diags.hasErrors() {
		return nil, diags.items, &StrictModeError{Diagnostics: diags.items}
	}

	p.logger.Debug("parsed workflow",
		"name", parsed.Metadata.Name,
		"nodes", len(parsed.Nodes),
		"connections", len(parsed.Connections),
		"triggers", len(parsed.TriggerNodes),
		"diagnostics", len(diags.items))

	return parsed, diags.items, nil
}

// extractNodes checks each raw node for the required fields (name, type,
// typeVersion, position); failing nodes are dropped and recorded as errors.
// Duplicate names are a warning only: the node is still stored and the last
// write wins, because downstream tooling tolerates duplicates gracefully.
func (p *Parser) extractNodes(parsed *models.ParsedWorkflow, rawNodes []json.RawMessage, diags *diagnostics) {
	for i, rawNode := range rawNodes {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rawNode, &fields); err != nil {
			diags.errorf(CodeInvalidNode, "", "node %d is not an object", i)

			continue
		}

		missing := missingNodeFields(fields)
		if len(missing) > 0 {
			diags.errorf(CodeInvalidNode, nodeNameOf(fields),
				"node %d is missing required field(s): %s", i, strings.Join(missing, ", "))

			continue
		}

		var node models.Node
		if err := json.Unmarshal(rawNode, &node); err != nil {
			diags.errorf(CodeInvalidNode, nodeNameOf(fields), "node %d has malformed fields: %v", i, err)

			continue
		}

		if _, exists := parsed.Nodes[node.Name]; exists {
			diags.warnf(CodeDuplicateNodeName, node.Name,
				"duplicate node name %q: keeping the later definition", node.Name)
		} else {
			parsed.NodeOrder = append(parsed.NodeOrder, node.Name)
		}

		parsed.Nodes[node.Name] = &node
	}
}

var requiredNodeFields = []string{"name", "type", "typeVersion", "position"}

func missingNodeFields(fields map[string]json.RawMessage) []string {
	var missing []string

	for _, field := range requiredNodeFields {
		value, ok := fields[field]
		if !ok || string(value) == "null" {
			missing = append(missing, field)
		}
	}

	return missing
}

func nodeNameOf(fields map[string]json.RawMessage) string {
	var name string
	if raw, ok := fields["name"]; ok {
		_ = json.Unmarshal(raw, &name)
	}

	return name
}

// extractConnections validates every connection endpoint against the
// already-extracted node set. Unknown endpoints are errors and the connection
// is dropped, but parsing continues.
func (p *Parser) extractConnections(parsed *models.ParsedWorkflow, cm models.ConnectionMap, diags *diagnostics) {
	for _, conn := range cm.Flatten() {
		if _, ok := parsed.Nodes[conn.SourceNode]; !ok {
			refErr := &ReferenceError{SourceNode: conn.SourceNode, TargetNode: conn.TargetNode, Unknown: conn.SourceNode}
			diags.errorf(CodeUnknownConnection, conn.SourceNode, "%s", refErr.Error())

			continue
		}

		if _, ok := parsed.Nodes[conn.TargetNode]; !ok {
			refErr := &ReferenceError{SourceNode: conn.SourceNode, TargetNode: conn.TargetNode, Unknown: conn.TargetNode}
			diags.errorf(CodeUnknownConnection, conn.TargetNode, "%s", refErr.Error())

			continue
		}

		parsed.Connections = append(parsed.Connections, conn)
	}
}

// analyze computes the derived graph properties: trigger nodes, required
// credential types, cycle detection, and topological execution order.
func (p *Parser) analyze(parsed *models.ParsedWorkflow, diags *diagnostics) {
	graph := buildGraph(parsed.NodeOrder, parsed.Connections)

	credTypes := make(map[string]struct{})

	for _, name := range parsed.NodeOrder {
		node := parsed.Nodes[name]

		if IsTriggerType(node.Type) {
			parsed.TriggerNodes = append(parsed.TriggerNodes, name)
		} else if graph.isIsolated(name) {
			diags.warnf(CodeOrphanNode, name,
				"node %q has no connections and is not a trigger; it is likely orphaned", name)
		}

		for _, credType := range node.CredentialTypes() {
			credTypes[credType] = struct{}{}
		}
	}

	for credType := range credTypes {
		parsed.RequiredCredentialTypes = append(parsed.RequiredCredentialTypes, credType)
	}

	sort.Strings(parsed.RequiredCredentialTypes)

	if cyclic, path := graph.detectCycle(); cyclic {
		parsed.SetCycle(path)
		diags.errorf(CodeCycle, path[0], "%s", (&CycleError{Path: path}).Error())
	}

	ordered, residual := graph.topologicalOrder()
	parsed.ExecutionOrder = ordered

	if len(residual) > 0 {
		diags.warnf(CodeUnorderedNodes, "",
			"%d node(s) could not be ordered (cycle or disconnected component): %s",
			len(residual), strings.Join(residual, ", "))
	}
}

// IsTriggerType classifies a node type string using the TriggerTypeHints
// substring heuristic.
func IsTriggerType(nodeType string) bool {
	lower := strings.ToLower(nodeType)

	for _, hint := range TriggerTypeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}

	return false
}
