// Package store provides Foreman's persistence collaborators: a durable
// key/value store used by the orchestrator for queue snapshots, and the
// ticket correlation store used to prevent duplicate admission.
package store

// KV is a durable key/value store exposing get/update by key. The
// orchestrator persists the whole task collection under a single
// namespaced key; it never enumerates keys.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	// Put writes the value for key, replacing any prior value.
	Put(key string, value []byte) error
}

// TicketStore answers correlation lookups for ticket-to-task conversion
// flows, letting callers avoid duplicate admission before calling AddTask.
type TicketStore interface {
	// HasTaskForTicket reports whether a task has already been recorded
	// for the given ticket id.
	HasTaskForTicket(ticketID string) (bool, error)
	// RecordTicketTask records that taskID was created for ticketID.
	RecordTicketTask(ticketID, taskID string) error
}
