// Package tools implements the named operations agents call through the
// protocol layer. Each handler validates its typed parameters, reads or
// mutates orchestrator state, and returns a result value or a typed
// protocol error.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foremanhq/foreman/internal/deps"
	"github.com/foremanhq/foreman/internal/orchestrator"
	"github.com/foremanhq/foreman/internal/protocol"
	"github.com/foremanhq/foreman/internal/server"
	"github.com/foremanhq/foreman/internal/store"
	"github.com/foremanhq/foreman/pkg/models"
)

// Registered method names.
const (
	MethodGetNextTask              = "getNextTask"
	MethodReportTaskStatus         = "reportTaskStatus"
	MethodReportVerificationResult = "reportVerificationResult"
	MethodReportTestFailure        = "reportTestFailure"
	MethodAskQuestion              = "askQuestion"
	MethodReportObservation        = "reportObservation"
)

// previewLimit bounds the candidate preview returned by getNextTask.
const previewLimit = 3

// Service wires the tool handlers to their collaborators.
type Service struct {
	orc     *orchestrator.Orchestrator
	tickets store.TicketStore
	planRef string
}

// NewService creates the tool service. planRef names the plan document
// referenced in generated prompts; empty disables the reference.
func NewService(orc *orchestrator.Orchestrator, tickets store.TicketStore, planRef string) *Service {
	return &Service{orc: orc, tickets: tickets, planRef: planRef}
}

// RegisterAll registers every tool on the server. Must be called again
// after a server restart, which clears the registry.
func (s *Service) RegisterAll(srv *server.Server) {
	srv.RegisterTool(MethodGetNextTask, s.GetNextTask)
	srv.RegisterTool(MethodReportTaskStatus, s.ReportTaskStatus)
	srv.RegisterTool(MethodReportVerificationResult, s.ReportVerificationResult)
	srv.RegisterTool(MethodReportTestFailure, s.ReportTestFailure)
	srv.RegisterTool(MethodAskQuestion, s.AskQuestion)
	srv.RegisterTool(MethodReportObservation, s.ReportObservation)
}

// taskSummary is the compact task shape used in candidate previews.
type taskSummary struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Priority models.TaskPriority `json:"priority"`
	Status   models.TaskStatus   `json:"status"`
}

func summarize(t *models.Task) taskSummary {
	return taskSummary{ID: t.ID, Title: t.Title, Priority: t.Priority, Status: t.Status}
}

// GetNextTask returns the highest-ordered ready task matching the optional
// status and priority filters, enriched with a generated prompt and plan
// reference, a bounded preview of runners-up, and the total matching count.
// The handed-out task is recorded as the orchestrator's current task.
// A null task, not an error, signals that nothing matches.
func (s *Service) GetNextTask(ctx context.Context, params map[string]any) (any, error) {
	p, perr := protocol.ParseGetNextTaskParams(params)
	if perr != nil {
		return nil, perr
	}

	matching := s.orc.SelectTasks(func(t *models.Task) bool {
		if p.Status != "" && t.Status != p.Status {
			return false
		}
		if p.Priority != "" && t.Priority != p.Priority {
			return false
		}
		return true
	})

	if len(matching) == 0 {
		return map[string]any{
			"task":          nil,
			"totalMatching": 0,
		}, nil
	}

	head := matching[0]
	preview := make([]taskSummary, 0, previewLimit)
	for _, t := range matching[1:] {
		if len(preview) == previewLimit {
			break
		}
		preview = append(preview, summarize(t))
	}

	return map[string]any{
		"task":          head,
		"prompt":        s.buildPrompt(head),
		"planReference": s.planRef,
		"nextTasks":     preview,
		"totalMatching": len(matching),
	}, nil
}

// ReportTaskStatus transitions one task to the reported status.
func (s *Service) ReportTaskStatus(ctx context.Context, params map[string]any) (any, error) {
	p, perr := protocol.ParseReportTaskStatusParams(params)
	if perr != nil {
		return nil, perr
	}

	task := s.orc.GetTask(p.TaskID)
	if task == nil {
		return nil, taskNotFound(p.TaskID)
	}

	previous := task.Status
	s.orc.UpdateTaskStatus(p.TaskID, p.Status)

	return map[string]any{
		"taskId":         p.TaskID,
		"status":         p.Status,
		"previousStatus": previous,
	}, nil
}

// ReportVerificationResult transitions the verification task and the
// original task, and on a failed verification admits one remediation task
// per failed checklist item through the normal admission path.
func (s *Service) ReportVerificationResult(ctx context.Context, params map[string]any) (any, error) {
	p, perr := protocol.ParseReportVerificationResultParams(params)
	if perr != nil {
		return nil, perr
	}
	result := p.Result()

	verification := s.orc.GetTask(result.VerificationTaskID)
	if verification == nil {
		return nil, taskNotFound(result.VerificationTaskID)
	}
	original := s.orc.GetTask(result.TaskID)
	if original == nil {
		return nil, taskNotFound(result.TaskID)
	}

	resulting := result.ResultingStatus
	if resulting == "" {
		if result.Status == models.VerificationPassed {
			resulting = models.StatusDone
		} else {
			resulting = models.StatusFailed
		}
	}

	s.orc.UpdateTaskStatus(result.VerificationTaskID, models.StatusDone)
	s.orc.UpdateTaskStatus(result.TaskID, resulting)

	var remediation []taskSummary
	if result.Status == models.VerificationFailed {
		for _, item := range result.FailedItems {
			task := &models.Task{
				ID:          uuid.New().String()[:8],
				Title:       fmt.Sprintf("Fix: %s", item.Item),
				Description: fmt.Sprintf("Remediate failed verification item for task %s: %s", result.TaskID, item.Reason),
				Priority:    original.Priority,
				Status:      models.StatusReady,
				CreatedAt:   time.Now(),
				Metadata:    map[string]string{models.MetaOrigin: "remediation"},
			}
			if s.orc.AddTask(task) {
				remediation = append(remediation, summarize(task))
			}
		}
	}

	return map[string]any{
		"taskId":           result.TaskID,
		"resultingStatus":  resulting,
		"remediationTasks": remediation,
	}, nil
}

// ReportTestFailure classifies a test failure for triage, optionally admits
// an investigation task, and surfaces tasks that depend on the failing one
// as informational blocking relationships.
func (s *Service) ReportTestFailure(ctx context.Context, params map[string]any) (any, error) {
	p, perr := protocol.ParseReportTestFailureParams(params)
	if perr != nil {
		return nil, perr
	}
	report := p.Report()

	task := s.orc.GetTask(report.TaskID)
	if task == nil {
		return nil, taskNotFound(report.TaskID)
	}

	category := ClassifyFailure(report)

	all := s.orc.GetAllTasks()
	var blocking []taskSummary
	for _, dependent := range deps.Dependents(report.TaskID, all) {
		blocking = append(blocking, summarize(dependent))
	}

	result := map[string]any{
		"taskId":         report.TaskID,
		"testName":       report.TestName,
		"likeliestCause": category,
		"blocking":       blocking,
	}

	if report.Investigate {
		investigation := &models.Task{
			ID:          uuid.New().String()[:8],
			Title:       fmt.Sprintf("Investigate test failure: %s", report.TestName),
			Description: fmt.Sprintf("Test %s failed for task %s (likeliest cause: %s). Recommended action: %s", report.TestName, report.TaskID, category, report.RecommendedAction),
			Priority:    task.Priority,
			Status:      models.StatusReady,
			CreatedAt:   time.Now(),
			Metadata:    map[string]string{models.MetaOrigin: "investigation"},
		}
		if s.orc.AddTask(investigation) {
			result["investigationTaskId"] = investigation.ID
		}
	}

	return result, nil
}

// AskQuestion records a clarification request in the ticket store and
// returns the question id a human reply will be correlated to.
func (s *Service) AskQuestion(ctx context.Context, params map[string]any) (any, error) {
	p, perr := protocol.ParseAskQuestionParams(params)
	if perr != nil {
		return nil, perr
	}

	questionID := uuid.New().String()[:8]
	if err := s.tickets.RecordTicketTask(questionID, p.TaskID); err != nil {
		return nil, protocol.NewError(protocol.CodeInternalServerError,
			fmt.Sprintf("failed to record question: %v", err))
	}

	return map[string]any{
		"questionId": questionID,
		"status":     "pending",
	}, nil
}

// ReportObservation acknowledges an observation. Observations are advisory;
// they never mutate task state.
func (s *Service) ReportObservation(ctx context.Context, params map[string]any) (any, error) {
	p, perr := protocol.ParseReportObservationParams(params)
	if perr != nil {
		return nil, perr
	}

	return map[string]any{
		"acknowledged": true,
		"category":     p.Category,
	}, nil
}

func taskNotFound(id string) *protocol.Error {
	return protocol.NewError(protocol.CodeTaskNotFound, fmt.Sprintf("task not found: %s", id)).
		WithData(map[string]any{"taskId": id})
}
