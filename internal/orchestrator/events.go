// Package orchestrator owns the authoritative task set: admission with
// duplicate and capacity checks, priority selection, session tracking,
// debounced persistence, and restart reconciliation.
package orchestrator

import (
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventTaskAdmitted indicates a task passed admission and joined the queue.
	EventTaskAdmitted EventType = "task_admitted"
	// EventTaskDeclined indicates admission silently declined a task.
	EventTaskDeclined EventType = "task_declined"
	// EventTaskStatusChanged indicates a task transitioned status.
	EventTaskStatusChanged EventType = "task_status_changed"
	// EventSessionStarted indicates a processing session began.
	EventSessionStarted EventType = "session_started"
	// EventSessionCancelled indicates a processing session was cancelled.
	EventSessionCancelled EventType = "session_cancelled"
	// EventStateRestored indicates persisted tasks were loaded at startup.
	EventStateRestored EventType = "state_restored"
	// EventStateSaved indicates the task set was flushed to the store.
	EventStateSaved EventType = "state_saved"
)

// Event represents an event emitted by the orchestrator. Subscribers such
// as a status view receive these to track queue activity.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// TaskTitle is the title of the related task, if applicable.
	TaskTitle string
	// SessionID is the ID of the related session, if applicable.
	SessionID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
