// Package builder provides a fluent API for constructing workflow documents
// that satisfy the same invariants the parser enforces.
package builder

import (
	"errors"
	"fmt"
)

// Builder errors are raised immediately at the call site: they represent
// programmer or input errors at construction time, where partial state is
// not useful.
var (
	// ErrUnknownNode indicates a connection endpoint that was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfConnection indicates a connection from a node to itself.
	ErrSelfConnection = errors.New("node cannot connect to itself")

	// ErrSizeLimit indicates the workflow exceeded a hard size threshold.
	ErrSizeLimit = errors.New("workflow size limit exceeded")
)

// SizeLimitError reports which metric broke its hard threshold. Build never
// silently truncates.
type SizeLimitError struct {
	Metric string
	Limit  int
	Actual int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s: %s is %d, hard limit is %d",
		ErrSizeLimit.Error(), e.Metric, e.Actual, e.Limit)
}

func (e *SizeLimitError) Unwrap() error { return ErrSizeLimit }
