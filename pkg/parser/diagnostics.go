package parser

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes emitted by the parser.
const (
	CodeMissingNodes      = "missing_nodes"
	CodeInvalidNode       = "invalid_node"
	CodeDuplicateNodeName = "duplicate_node_name"
	CodeUnknownConnection = "unknown_connection_node"
	CodeCycle             = "circular_dependency"
	CodeUnorderedNodes    = "unordered_nodes"
	CodeOrphanNode        = "orphan_node"
	CodeSchemaViolation   = "schema_violation"
)

// Diagnostic is one problem found while parsing a workflow document.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Node     string   `json:"node,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Node != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, d.Node, d.Message)
	}

	return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
}

// diagnostics accumulates problems during a single parse pass.
type diagnostics struct {
	items []Diagnostic
}

func (d *diagnostics) errorf(code, node, format string, args ...any) {
	d.items = append(d.items, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Node:     node,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (d *diagnostics) warnf(code, node, format string, args ...any) {
	d.items = append(d.items, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Node:     node,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (d *diagnostics) hasErrors() bool {
	for _, item := range d.items {
		if item.Severity == SeverityError {
			return true
		}
	}

	return false
}

// HasErrors reports whether any diagnostic in the list is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}
