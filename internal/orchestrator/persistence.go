package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/foremanhq/foreman/pkg/models"
)

// TaskStateKey is the namespaced key the task collection is stored under.
const TaskStateKey = "foreman.tasks"

// persistedTask is the durable form of a task. It round-trips status,
// priority, dependencies, and metadata exactly; timestamps are RFC 3339.
type persistedTask struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	Priority           models.TaskPriority `json:"priority"`
	Status             models.TaskStatus   `json:"status"`
	Dependencies       []string            `json:"dependencies,omitempty"`
	BlockedBy          []string            `json:"blockedBy,omitempty"`
	AcceptanceCriteria []string            `json:"acceptanceCriteria,omitempty"`
	CreatedAt          string              `json:"createdAt"`
	EstimatedHours     float64             `json:"estimatedHours,omitempty"`
	Metadata           map[string]string   `json:"metadata,omitempty"`
}

// markDirtyLocked flags unsaved state and schedules a flush after the
// debounce window. Mutations inside the window coalesce into one save; only
// one flush is ever scheduled at a time. Callers must hold o.mu.
func (o *Orchestrator) markDirtyLocked() {
	o.dirty = true
	if o.saveTimer == nil {
		o.saveTimer = time.AfterFunc(o.saveDebounce, o.flushScheduled)
	}
}

// flushScheduled is the debounce timer callback.
func (o *Orchestrator) flushScheduled() {
	o.mu.Lock()
	o.saveTimer = nil
	if !o.dirty {
		o.mu.Unlock()
		return
	}
	o.dirty = false
	snapshot := o.queue.GetAllTasks()
	o.mu.Unlock()

	o.save(snapshot)
}

// Flush cancels any scheduled save and writes unsaved state immediately.
// Called on shutdown so no pending mutation is lost.
func (o *Orchestrator) Flush() {
	o.mu.Lock()
	if o.saveTimer != nil {
		o.saveTimer.Stop()
		o.saveTimer = nil
	}
	if !o.dirty {
		o.mu.Unlock()
		return
	}
	o.dirty = false
	snapshot := o.queue.GetAllTasks()
	o.mu.Unlock()

	o.save(snapshot)
}

// save writes the task snapshot to the store. Save failures are logged and
// swallowed; in-memory state stays authoritative.
func (o *Orchestrator) save(tasks []*models.Task) {
	records := make([]persistedTask, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, persistedTask{
			ID:                 t.ID,
			Title:              t.Title,
			Description:        t.Description,
			Priority:           t.Priority,
			Status:             t.Status,
			Dependencies:       t.Dependencies,
			BlockedBy:          t.BlockedBy,
			AcceptanceCriteria: t.AcceptanceCriteria,
			CreatedAt:          t.CreatedAt.UTC().Format(time.RFC3339Nano),
			EstimatedHours:     t.EstimatedHours,
			Metadata:           t.Metadata,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		o.logger.Log("persist: marshal tasks: %v", err)
		return
	}
	if err := o.kv.Put(TaskStateKey, data); err != nil {
		o.logger.Log("persist: save tasks: %v", err)
		return
	}

	o.logger.Log("persist: saved %d tasks", len(records))
	o.emit(Event{Type: EventStateSaved, Message: "tasks saved", Timestamp: time.Now()})
}

// InitializeWithPersistence loads the persisted task set and marks the
// orchestrator initialized. Read or parse failures start with an empty
// queue rather than failing startup. Registered observers are notified
// after restoration.
func (o *Orchestrator) InitializeWithPersistence() {
	restored := o.loadPersistedTasks()

	o.mu.Lock()
	for _, t := range restored {
		o.queue.AddTask(t)
	}
	o.initialized = true
	o.mu.Unlock()

	o.logger.Log("restored %d tasks from persistence", len(restored))
	o.emit(Event{Type: EventStateRestored, Message: "tasks restored", Timestamp: time.Now()})
	o.notify()
}

// loadPersistedTasks reads and filters the persisted set. Only ready,
// in-progress, and blocked tasks are restored; terminal or unrecognized
// statuses are dropped. A timestamp that fails to parse is coerced to now.
func (o *Orchestrator) loadPersistedTasks() []*models.Task {
	data, ok, err := o.kv.Get(TaskStateKey)
	if err != nil {
		o.logger.Log("persist: read tasks: %v, starting empty", err)
		return nil
	}
	if !ok {
		return nil
	}

	var records []persistedTask
	if err := json.Unmarshal(data, &records); err != nil {
		o.logger.Log("persist: parse tasks: %v, starting empty", err)
		return nil
	}

	now := time.Now()
	var tasks []*models.Task
	for _, rec := range records {
		status := models.NormalizeStatus(rec.Status)
		switch status {
		case models.StatusReady, models.StatusInProgress, models.StatusBlocked:
		default:
			continue
		}

		createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
		if err != nil {
			createdAt = now
		}

		task := &models.Task{
			ID:                 rec.ID,
			Title:              rec.Title,
			Description:        rec.Description,
			Priority:           rec.Priority,
			Status:             status,
			Dependencies:       rec.Dependencies,
			BlockedBy:          rec.BlockedBy,
			AcceptanceCriteria: rec.AcceptanceCriteria,
			CreatedAt:          createdAt,
			UpdatedAt:          createdAt,
			EstimatedHours:     rec.EstimatedHours,
			Metadata:           rec.Metadata,
		}
		task.Normalize(now)
		tasks = append(tasks, task)
	}
	return tasks
}
