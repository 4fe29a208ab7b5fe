// Package events defines event types for workflow version lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

// EventType identifies a version lifecycle event.
type EventType string

// Topic carries all version lifecycle events.
const Topic = "flowkit.versions"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	VersionCreatedEvent EventType = "workflow.version.created"
	VersionBumpedEvent  EventType = "workflow.version.bumped"
)

// Event is implemented by every published payload.
type Event interface {
	GetType() EventType
	Key() string
}

// BaseEvent carries the fields common to all version events.
type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func (e BaseEvent) GetType() EventType { return e.Type }

// Key routes events for the same workflow to the same partition.
func (e BaseEvent) Key() string { return e.WorkflowID }

func newBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// VersionCreated is published after a snapshot is stored.
type VersionCreated struct {
	BaseEvent

	Version      string `json:"version"`
	VersionID    string `json:"version_id"`
	WorkflowName string `json:"workflow_name"`
	Checksum     string `json:"checksum"`
}

// NewVersionCreated builds the event for a freshly stored version record.
func NewVersionCreated(workflowID string, record *models.WorkflowVersion) *VersionCreated {
	return &VersionCreated{
		BaseEvent:    newBaseEvent(VersionCreatedEvent, workflowID),
		Version:      record.Version,
		VersionID:    record.VersionID,
		WorkflowName: record.WorkflowName,
		Checksum:     record.Checksum,
	}
}

// VersionBumped is published after a bump operation stores a new record.
type VersionBumped struct {
	BaseEvent

	Version         string `json:"version"`
	VersionID       string `json:"version_id"`
	WorkflowName    string `json:"workflow_name"`
	Checksum        string `json:"checksum"`
	BumpType        string `json:"bump_type"`
	PreviousVersion string `json:"previous_version"`
}

// NewVersionBumped builds the event for a bump-created version record.
func NewVersionBumped(workflowID string, record *models.WorkflowVersion, bumpType, previous string) *VersionBumped {
	return &VersionBumped{
		BaseEvent:       newBaseEvent(VersionBumpedEvent, workflowID),
		Version:         record.Version,
		VersionID:       record.VersionID,
		WorkflowName:    record.WorkflowName,
		Checksum:        record.Checksum,
		BumpType:        bumpType,
		PreviousVersion: previous,
	}
}
