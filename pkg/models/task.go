// Package models defines the task and reporting types shared across Foreman.
package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// StatusReady indicates the task can be scheduled once its dependencies are met.
	StatusReady TaskStatus = "ready"
	// StatusInProgress indicates an agent is working on the task.
	StatusInProgress TaskStatus = "in-progress"
	// StatusBlocked indicates the task cannot proceed until a blocking condition clears.
	StatusBlocked TaskStatus = "blocked"
	// StatusDone indicates the task completed successfully. Terminal.
	StatusDone TaskStatus = "done"
	// StatusFailed indicates the task failed. Terminal.
	StatusFailed TaskStatus = "failed"
)

// NormalizeStatus maps accepted wire aliases onto the canonical vocabulary:
// "pending" is an alias for ready, "completed" an alias for done. Unknown
// values pass through unchanged so callers can decide how to treat them.
func NormalizeStatus(s TaskStatus) TaskStatus {
	switch s {
	case "pending":
		return StatusReady
	case "completed":
		return StatusDone
	default:
		return s
	}
}

// Valid returns true if the status is a known canonical value.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusReady, StatusInProgress, StatusBlocked, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true for statuses that end a task's scheduling lifecycle.
func (s TaskStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Schedulable returns true if a task with this status may be selected for work.
func (s TaskStatus) Schedulable() bool {
	return s == StatusReady
}

// TaskPriority is the urgency of a task, highest first: P1 > P2 > P3.
type TaskPriority string

const (
	PriorityP1 TaskPriority = "P1"
	PriorityP2 TaskPriority = "P2"
	PriorityP3 TaskPriority = "P3"
)

// Valid returns true if the priority is a known value.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3:
		return true
	default:
		return false
	}
}

// Rank returns the sort rank of the priority. Lower sorts first.
// Unknown priorities rank after P3 so malformed tasks never jump the queue.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	default:
		return 4
	}
}

// Well-known metadata keys.
const (
	// MetaTicketID carries the correlation identifier used for duplicate
	// prevention: at most one non-terminal task per ticket at any time.
	MetaTicketID = "ticketId"
	// MetaOrigin tags where the task came from ("plan", "tool",
	// "ticket", "verification", "investigation").
	MetaOrigin = "origin"
)

// Task represents a unit of work in the queue.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Priority is the urgency of the task.
	Priority TaskPriority `json:"priority"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Dependencies lists task IDs that must be done before this task is
	// ready. This is the hard scheduling gate.
	Dependencies []string `json:"dependencies,omitempty"`
	// BlockedBy lists informational blockers. Unlike Dependencies it is
	// never consulted by scheduling; it exists for humans and reporting.
	BlockedBy []string `json:"blockedBy,omitempty"`
	// AcceptanceCriteria defines the criteria for task completion.
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the task was last modified.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	// EstimatedHours is the optional effort estimate.
	EstimatedHours float64 `json:"estimatedHours,omitempty"`
	// Metadata carries free-form string pairs, including the correlation
	// ticket id and origin tag.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TicketID returns the correlation identifier from metadata, if any.
func (t *Task) TicketID() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[MetaTicketID]
}

// Origin returns the origin tag from metadata, if any.
func (t *Task) Origin() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[MetaOrigin]
}

// Normalize brings a task into canonical form: status aliases are resolved,
// a zero status becomes ready, self-dependencies are removed, and a zero
// creation time is set to now.
func (t *Task) Normalize(now time.Time) {
	t.Status = NormalizeStatus(t.Status)
	if t.Status == "" {
		t.Status = StatusReady
	}
	if len(t.Dependencies) > 0 {
		deps := t.Dependencies[:0]
		for _, dep := range t.Dependencies {
			if dep != t.ID {
				deps = append(deps, dep)
			}
		}
		t.Dependencies = deps
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.Dependencies = append([]string(nil), t.Dependencies...)
	c.BlockedBy = append([]string(nil), t.BlockedBy...)
	c.AcceptanceCriteria = append([]string(nil), t.AcceptanceCriteria...)
	if t.Metadata != nil {
		c.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
