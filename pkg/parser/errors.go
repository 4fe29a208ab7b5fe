// Package parser turns raw workflow JSON documents into validated
// ParsedWorkflow results, accumulating diagnostics instead of stopping at the
// first problem.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic checks via errors.Is.
var (
	// ErrStructural indicates a missing required top-level or node field.
	ErrStructural = errors.New("structural error")

	// ErrReference indicates a connection to an unknown node.
	ErrReference = errors.New("reference error")

	// ErrCycle indicates a circular dependency between nodes.
	ErrCycle = errors.New("circular dependency")

	// ErrStrictMode indicates a strict-mode parse aborted on accumulated errors.
	ErrStrictMode = errors.New("strict validation failed")
)

// StructuralError reports a missing required field. Always fatal in both
// parse modes when it concerns the top-level document.
type StructuralError struct {
	Field string
	Msg   string
}

func (e *StructuralError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ErrStructural.Error(), e.Field, e.Msg)
	}

	return fmt.Sprintf("%s: %s", ErrStructural.Error(), e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// ReferenceError reports a connection whose source or target names an
// unknown node.
type ReferenceError struct {
	SourceNode string
	TargetNode string
	Unknown    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: connection %q -> %q references unknown node %q",
		ErrReference.Error(), e.SourceNode, e.TargetNode, e.Unknown)
}

func (e *ReferenceError) Unwrap() error { return ErrReference }

// CycleError carries the path of a detected circular dependency.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle.Error(), strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// StrictModeError is returned by strict parses that accumulated errors. It
// carries every diagnostic collected in the pass, not just the first, so
// callers can fix multiple issues in one iteration.
type StrictModeError struct {
	Diagnostics []Diagnostic
}

func (e *StrictModeError) Error() string {
	count := 0

	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			count++
		}
	}

	return fmt.Sprintf("%s: %d error(s)", ErrStrictMode.Error(), count)
}

func (e *StrictModeError) Unwrap() error { return ErrStrictMode }
