package orchestrator

import (
	"sort"
	"sync"
	"time"

	"github.com/foremanhq/foreman/internal/deps"
	"github.com/foremanhq/foreman/internal/queue"
	"github.com/foremanhq/foreman/internal/store"
	"github.com/foremanhq/foreman/pkg/models"
)

// Notifier receives a refresh signal after the task set changes in a way an
// observer should re-render. The orchestrator does not know what renders it.
type Notifier interface {
	Refresh()
}

const (
	// DefaultMaxQueueSize is the admission ceiling when none is configured.
	DefaultMaxQueueSize = 500
	// DefaultSaveDebounce is the quiescent window before a persistence flush.
	DefaultSaveDebounce = 500 * time.Millisecond
)

// Orchestrator owns the authoritative in-memory task set and is the only
// component permitted to persist it.
type Orchestrator struct {
	mu    sync.Mutex
	queue *queue.TaskQueue
	kv    store.KV

	notifier Notifier
	emitter  *EventEmitter
	logger   *DebugLogger

	maxQueueSize int
	saveDebounce time.Duration

	sessions      map[string]*session
	currentTaskID string
	initialized   bool

	dirty     bool
	saveTimer *time.Timer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxQueueSize sets the admission ceiling. Values below 1 are ignored.
func WithMaxQueueSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxQueueSize = n
		}
	}
}

// WithSaveDebounce sets the quiescent window before a persistence flush.
func WithSaveDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.saveDebounce = d
		}
	}
}

// WithNotifier registers an observer signalled after load and mutation.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithEventEmitter attaches an event emitter for queue activity events.
func WithEventEmitter(e *EventEmitter) Option {
	return func(o *Orchestrator) { o.emitter = e }
}

// WithLogger attaches a debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator persisting through kv. The zero configuration
// uses DefaultMaxQueueSize and DefaultSaveDebounce.
func New(kv store.KV, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		queue:        queue.New(),
		kv:           kv,
		logger:       NopLogger(),
		maxQueueSize: DefaultMaxQueueSize,
		saveDebounce: DefaultSaveDebounce,
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddTask admits a task into the queue. Admission silently declines, and
// returns false, when a non-terminal task already carries the same ticket
// id or the queue is at capacity. Declining is not an error; callers can
// check HasTaskForTicket beforehand to distinguish the duplicate case.
func (o *Orchestrator) AddTask(task *models.Task) bool {
	task.Normalize(time.Now())

	o.mu.Lock()
	defer o.mu.Unlock()

	if tid := task.TicketID(); tid != "" && o.hasTaskForTicketLocked(tid) {
		o.logger.Log("admission declined for %s: ticket %s already has a live task", task.ID, tid)
		o.emit(Event{Type: EventTaskDeclined, TaskID: task.ID, TaskTitle: task.Title,
			Message: "duplicate ticket id", Timestamp: time.Now()})
		return false
	}

	if o.queue.Len() >= o.maxQueueSize {
		o.logger.Log("admission declined for %s: queue at capacity (%d)", task.ID, o.maxQueueSize)
		o.emit(Event{Type: EventTaskDeclined, TaskID: task.ID, TaskTitle: task.Title,
			Message: "queue at capacity", Timestamp: time.Now()})
		return false
	}

	o.queue.AddTask(task)
	o.markDirtyLocked()
	o.emit(Event{Type: EventTaskAdmitted, TaskID: task.ID, TaskTitle: task.Title, Timestamp: time.Now()})
	o.notify()
	return true
}

// HasTaskForTicket reports whether any non-terminal task carries the ticket
// id in its metadata.
func (o *Orchestrator) HasTaskForTicket(ticketID string) bool {
	if ticketID == "" {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hasTaskForTicketLocked(ticketID)
}

func (o *Orchestrator) hasTaskForTicketLocked(ticketID string) bool {
	for _, t := range o.queue.GetAllTasks() {
		if t.TicketID() == ticketID && !t.Status.Terminal() {
			return true
		}
	}
	return false
}

// GetReadyTasks returns schedulable tasks whose dependencies are met,
// ordered by priority (P1 first), then creation time oldest first, then id.
func (o *Orchestrator) GetReadyTasks() []*models.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.readyTasksLocked()
}

func (o *Orchestrator) readyTasksLocked() []*models.Task {
	return o.selectLocked(nil)
}

func (o *Orchestrator) selectLocked(match func(*models.Task) bool) []*models.Task {
	all := o.queue.GetAllTasks()

	var selected []*models.Task
	for _, t := range all {
		if !t.Status.Schedulable() || !deps.AreDependenciesMet(t, all) {
			continue
		}
		if match != nil && !match(t) {
			continue
		}
		selected = append(selected, t)
	}
	SortTasks(selected)
	return selected
}

// SelectTasks returns the schedulable tasks whose dependencies are met and
// that satisfy match, in selection order. The head of a non-empty result is
// recorded as the current task, exactly as GetNextTask records its handout.
// A nil match keeps every candidate.
func (o *Orchestrator) SelectTasks(match func(*models.Task) bool) []*models.Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	selected := o.selectLocked(match)
	if len(selected) > 0 {
		o.currentTaskID = selected[0].ID
	}
	return selected
}

// SortTasks orders tasks by priority rank, then creation time oldest first,
// then id. The ordering is total, so selection is deterministic.
func SortTasks(tasks []*models.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// GetNextTask returns the highest-ordered ready task, or nil when none is
// ready, and records it as the current task.
func (o *Orchestrator) GetNextTask() *models.Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	ready := o.readyTasksLocked()
	if len(ready) == 0 {
		return nil
	}
	o.currentTaskID = ready[0].ID
	return ready[0]
}

// GetTask returns the task with the given id, or nil.
func (o *Orchestrator) GetTask(id string) *models.Task {
	task, _ := o.queue.Get(id)
	return task
}

// GetAllTasks returns a snapshot of every task in the queue.
func (o *Orchestrator) GetAllTasks() []*models.Task {
	return o.queue.GetAllTasks()
}

// Stats returns task counts by status.
func (o *Orchestrator) Stats() map[models.TaskStatus]int {
	return o.queue.GetStats()
}

// UpdateTaskStatus transitions a task to the given status. Returns false if
// the id is unknown. The mutation is visible immediately; persistence
// follows after the debounce window.
func (o *Orchestrator) UpdateTaskStatus(id string, status models.TaskStatus) bool {
	status = models.NormalizeStatus(status)

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.queue.Get(id); !ok {
		return false
	}
	o.queue.UpdateTaskStatus(id, status)
	if o.currentTaskID == id && status.Terminal() {
		o.currentTaskID = ""
	}
	o.markDirtyLocked()
	o.emit(Event{Type: EventTaskStatusChanged, TaskID: id,
		Message: string(status), Timestamp: time.Now()})
	o.notify()
	return true
}

// CurrentTaskID returns the id of the task most recently handed out, or
// the empty string.
func (o *Orchestrator) CurrentTaskID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentTaskID
}

// Initialized reports whether startup reconciliation has run.
func (o *Orchestrator) Initialized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialized
}

// Shutdown cancels all sessions, flushes any pending save, clears the queue
// and current-task pointer, and marks the orchestrator uninitialized.
func (o *Orchestrator) Shutdown() {
	o.CancelAllSessions()
	o.Flush()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue.Clear()
	o.currentTaskID = ""
	o.initialized = false
	o.logger.Log("orchestrator shut down")
}

func (o *Orchestrator) emit(event Event) {
	if o.emitter != nil {
		o.emitter.Emit(event)
	}
}

func (o *Orchestrator) notify() {
	if o.notifier != nil {
		o.notifier.Refresh()
	}
}
