// Package deps provides pure dependency checks over a task set.
//
// The functions here are stateless: the caller passes the full task set on
// every call and nothing is cached. The orchestrator owns the authoritative
// set, which keeps this package free of synchronization.
package deps

import "github.com/foremanhq/foreman/pkg/models"

// index builds an ID lookup for a task slice.
func index(tasks []*models.Task) map[string]*models.Task {
	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return byID
}

// AreDependenciesMet reports whether every dependency of task exists in the
// given set and is done. A task with no dependencies is always met. A
// dependency referencing a task absent from the set fails closed: the task
// is not ready and never will be until the missing task appears.
func AreDependenciesMet(task *models.Task, tasks []*models.Task) bool {
	if len(task.Dependencies) == 0 {
		return true
	}

	byID := index(tasks)
	for _, depID := range task.Dependencies {
		dep, ok := byID[depID]
		if !ok {
			return false
		}
		if dep.Status != models.StatusDone {
			return false
		}
	}
	return true
}

// Dependents returns every task whose dependency list contains taskID,
// preserving the input order of tasks.
func Dependents(taskID string, tasks []*models.Task) []*models.Task {
	var dependents []*models.Task
	for _, t := range tasks {
		for _, depID := range t.Dependencies {
			if depID == taskID {
				dependents = append(dependents, t)
				break
			}
		}
	}
	return dependents
}

// HasCircularDependency reports whether a dependency cycle is reachable from
// task. It runs a depth-first traversal tracking the current recursion
// stack; revisiting a task already on the stack is a cycle.
//
// Partial task sets are a supported input: an edge pointing at a task absent
// from the set terminates that branch as acyclic, mirroring the fail-closed
// treatment in AreDependenciesMet (such a task is simply never ready).
func HasCircularDependency(task *models.Task, tasks []*models.Task) bool {
	byID := index(tasks)
	onStack := make(map[string]bool)

	var visit func(id string) bool
	visit = func(id string) bool {
		if onStack[id] {
			return true
		}
		current, ok := byID[id]
		if !ok {
			// Missing node: this branch cannot close a cycle.
			return false
		}

		onStack[id] = true
		for _, depID := range current.Dependencies {
			if visit(depID) {
				return true
			}
		}
		onStack[id] = false
		return false
	}

	return visit(task.ID)
}
