package models

import "time"

// WorkflowVersion is one checksum-addressed snapshot in a workflow's version
// history. Records are append-only: once created they are never mutated.
// Ordering between versions is defined by semantic-version comparison, not
// creation order.
type WorkflowVersion struct {
	Version      string    `json:"version"      validate:"required"`
	VersionID    string    `json:"versionId"`
	WorkflowID   string    `json:"workflowId"   validate:"required"`
	WorkflowName string    `json:"workflowName"`
	Changelog    []string  `json:"changelog"`
	CreatedAt    time.Time `json:"createdAt"`
	Checksum     string    `json:"checksum"`
}
