// Package web provides the HTTP surface for workflow validation and the
// version/diff API consumed by external collaborators.
package web

import (
	"encoding/json"

	"github.com/flowkit-dev/flowkit/pkg/models"
	"github.com/flowkit-dev/flowkit/pkg/parser"
	"github.com/flowkit-dev/flowkit/pkg/versioning"
)

// ValidateResponse is the result of validating a workflow document.
type ValidateResponse struct {
	Valid                   bool                `json:"valid"`
	Diagnostics             []parser.Diagnostic `json:"diagnostics"`
	TriggerNodes            []string            `json:"trigger_nodes,omitempty"`
	ExecutionOrder          []string            `json:"execution_order,omitempty"`
	RequiredCredentialTypes []string            `json:"required_credential_types,omitempty"`
}

// CreateVersionRequest snapshots a workflow under an explicit version.
type CreateVersionRequest struct {
	Workflow  json.RawMessage `json:"workflow"  validate:"required"`
	Version   string          `json:"version"   validate:"required"`
	Changelog []string        `json:"changelog"`
}

// BumpVersionRequest snapshots a workflow under an automatically bumped
// version number.
type BumpVersionRequest struct {
	Workflow json.RawMessage `json:"workflow"  validate:"required"`
	BumpType string          `json:"bump_type" validate:"required,oneof=major minor patch"`
}

// DiffRequest compares two workflow documents.
type DiffRequest struct {
	A json.RawMessage `json:"a" validate:"required"`
	B json.RawMessage `json:"b" validate:"required"`
}

// DiffResponse carries the human-readable diff plus the structured change
// set and the bump it suggests.
type DiffResponse struct {
	Diff          string               `json:"diff"`
	Changes       versioning.ChangeSet `json:"changes"`
	SuggestedBump string               `json:"suggested_bump"`
}

// HistoryResponse lists the stored versions of one workflow.
type HistoryResponse struct {
	WorkflowID string                    `json:"workflow_id"`
	Versions   []*models.WorkflowVersion `json:"versions"`
}
