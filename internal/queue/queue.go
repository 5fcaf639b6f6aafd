// Package queue provides the in-memory task store.
//
// The queue is a plain map keyed by task ID. Insertion order carries no
// meaning; selection ordering is computed by the orchestrator, never stored
// here. Tasks are copied on the way in and on the way out, so callers never
// share task memory with the store and reads are safe under concurrent
// status updates.
package queue

import (
	"sync"
	"time"

	"github.com/foremanhq/foreman/pkg/models"
)

// TaskQueue is an in-memory store of tasks keyed by identifier.
type TaskQueue struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

// New creates an empty task queue.
func New() *TaskQueue {
	return &TaskQueue{
		tasks: make(map[string]*models.Task),
	}
}

// AddTask upserts a task by identifier. Last writer wins. The task is
// copied; later changes to the caller's value do not reach the store.
func (q *TaskQueue) AddTask(task *models.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks[task.ID] = task.Clone()
}

// Get returns a copy of the task for the given ID.
func (q *TaskQueue) Get(id string) (*models.Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	task, ok := q.tasks[id]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// GetNextTask returns any schedulable task, or nil if none exists.
// This is the naive fallback; ordered selection lives in the orchestrator.
func (q *TaskQueue) GetNextTask() *models.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, task := range q.tasks {
		if task.Status.Schedulable() {
			return task.Clone()
		}
	}
	return nil
}

// UpdateTaskStatus updates a task's status and last-modified timestamp.
// A missing identifier is a no-op.
func (q *TaskQueue) UpdateTaskStatus(id string, status models.TaskStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[id]
	if !ok {
		return
	}
	task.Status = status
	task.UpdatedAt = time.Now()
}

// GetAllTasks returns a snapshot of all tasks. Both the slice and the tasks
// are fresh copies.
func (q *TaskQueue) GetAllTasks() []*models.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	tasks := make([]*models.Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		tasks = append(tasks, task.Clone())
	}
	return tasks
}

// GetStats returns the number of tasks per status.
func (q *TaskQueue) GetStats() map[models.TaskStatus]int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	stats := make(map[models.TaskStatus]int)
	for _, task := range q.tasks {
		stats[task.Status]++
	}
	return stats
}

// Len returns the number of tasks in the queue.
func (q *TaskQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// Clear removes all tasks. Used by orchestrator shutdown and restore.
func (q *TaskQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = make(map[string]*models.Task)
}
