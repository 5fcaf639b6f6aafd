package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// session tracks one in-flight processing session. Cancellation is
// cooperative: it cancels the session context and removes the bookkeeping
// entry, it does not preempt work already running.
type session struct {
	id        string
	taskID    string
	startedAt time.Time
	cancel    context.CancelFunc
}

// StartSession registers a processing session for a task and returns its id
// together with a context cancelled when the session is.
func (o *Orchestrator) StartSession(ctx context.Context, taskID string) (string, context.Context) {
	id := uuid.New().String()[:8]
	sessionCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.sessions[id] = &session{
		id:        id,
		taskID:    taskID,
		startedAt: time.Now(),
		cancel:    cancel,
	}
	o.mu.Unlock()

	o.logger.Log("session %s started for task %s", id, taskID)
	o.emit(Event{Type: EventSessionStarted, SessionID: id, TaskID: taskID, Timestamp: time.Now()})
	return id, sessionCtx
}

// CancelSession cancels one session by id. Returns an error if the id is
// unknown.
func (o *Orchestrator) CancelSession(id string) error {
	o.mu.Lock()
	s, ok := o.sessions[id]
	if ok {
		delete(o.sessions, id)
	}
	o.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown session: %s", id)
	}

	o.cancelOne(s)
	return nil
}

// CancelAllSessions cancels every active session. A failure cancelling one
// session is contained so the rest are still cancelled.
func (o *Orchestrator) CancelAllSessions() {
	o.mu.Lock()
	active := make([]*session, 0, len(o.sessions))
	for _, s := range o.sessions {
		active = append(active, s)
	}
	o.sessions = make(map[string]*session)
	o.mu.Unlock()

	for _, s := range active {
		o.cancelOne(s)
	}
}

// cancelOne runs a session's cancel func under a recover so a misbehaving
// cancellation cannot block the others.
func (o *Orchestrator) cancelOne(s *session) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Log("session %s: cancellation panicked: %v", s.id, r)
		}
	}()

	s.cancel()
	o.logger.Log("session %s cancelled (task %s, ran %s)", s.id, s.taskID, time.Since(s.startedAt).Round(time.Millisecond))
	o.emit(Event{Type: EventSessionCancelled, SessionID: s.id, TaskID: s.taskID, Timestamp: time.Now()})
}

// ActiveSessions returns the ids of sessions currently tracked.
func (o *Orchestrator) ActiveSessions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	return ids
}
