package store

import "sync"

// MemoryKV is an in-memory KV implementation. It backs tests and serves as
// the fallback when the durable store cannot be opened.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get returns the stored value for key.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

// Put writes the value for key.
func (m *MemoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// MemoryTicketStore is an in-memory TicketStore implementation.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]string
}

// NewMemoryTicketStore creates an empty in-memory ticket store.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{tickets: make(map[string]string)}
}

// HasTaskForTicket reports whether a task was recorded for the ticket.
func (m *MemoryTicketStore) HasTaskForTicket(ticketID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tickets[ticketID]
	return ok, nil
}

// RecordTicketTask records that taskID was created for ticketID.
func (m *MemoryTicketStore) RecordTicketTask(ticketID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticketID] = taskID
	return nil
}

// OpenTicketStore opens the SQLite-backed ticket store at path, degrading
// to an in-memory store when the database cannot be opened.
func OpenTicketStore(path string) TicketStore {
	db, err := Open(path)
	if err != nil {
		return NewMemoryTicketStore()
	}
	return db
}
