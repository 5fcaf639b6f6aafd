package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foremanhq/foreman/pkg/models"
)

// decodeParams converts the loose param map into a typed struct through a
// JSON round-trip. Type mismatches yield CodeInvalidParams; unknown fields
// are tolerated so callers can evolve independently.
func decodeParams(params map[string]any, dest any) *Error {
	data, err := json.Marshal(params)
	if err != nil {
		return NewError(CodeInvalidParams, "invalid params").
			WithData(map[string]any{"detail": err.Error()})
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return NewError(CodeInvalidParams, "invalid params").
			WithData(map[string]any{"detail": err.Error()})
	}
	return nil
}

// GetNextTaskParams are the typed parameters of the getNextTask tool.
// Both filters are optional.
type GetNextTaskParams struct {
	// Status restricts candidates to one status.
	Status models.TaskStatus `json:"status,omitempty"`
	// Priority restricts candidates to one priority.
	Priority models.TaskPriority `json:"priority,omitempty"`
}

// ParseGetNextTaskParams decodes and validates getNextTask parameters.
// Unknown filter values are an invalid-filter domain error, not an
// invalid-params protocol error: the envelope was fine, the filter wasn't.
func ParseGetNextTaskParams(params map[string]any) (*GetNextTaskParams, *Error) {
	p := &GetNextTaskParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	if p.Status != "" {
		p.Status = models.NormalizeStatus(p.Status)
		if !p.Status.Valid() {
			return nil, NewError(CodeInvalidFilter, fmt.Sprintf("invalid status filter: %s", p.Status))
		}
	}
	if p.Priority != "" && !p.Priority.Valid() {
		return nil, NewError(CodeInvalidFilter, fmt.Sprintf("invalid priority filter: %s", p.Priority))
	}
	return p, nil
}

// ReportTaskStatusParams are the typed parameters of reportTaskStatus.
type ReportTaskStatusParams struct {
	TaskID  string            `json:"taskId"`
	Status  models.TaskStatus `json:"status"`
	Message string            `json:"message,omitempty"`
}

// ParseReportTaskStatusParams decodes and validates reportTaskStatus
// parameters.
func ParseReportTaskStatusParams(params map[string]any) (*ReportTaskStatusParams, *Error) {
	p := &ReportTaskStatusParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.TaskID) == "" {
		return nil, NewError(CodeInvalidParams, "taskId is required")
	}
	p.Status = models.NormalizeStatus(p.Status)
	if !p.Status.Valid() {
		return nil, NewError(CodeInvalidParams, fmt.Sprintf("invalid status: %s", p.Status))
	}
	return p, nil
}

// ReportVerificationResultParams are the typed parameters of
// reportVerificationResult.
type ReportVerificationResultParams struct {
	VerificationTaskID string                     `json:"verificationTaskId"`
	TaskID             string                     `json:"taskId"`
	Status             models.VerificationStatus  `json:"status"`
	Checklist          []models.CheckOutcome      `json:"checklist,omitempty"`
	FailedItems        []models.FailedItem        `json:"failedItems,omitempty"`
	ResultingStatus    models.TaskStatus          `json:"resultingStatus"`
}

// ParseReportVerificationResultParams decodes and validates
// reportVerificationResult parameters.
func ParseReportVerificationResultParams(params map[string]any) (*ReportVerificationResultParams, *Error) {
	p := &ReportVerificationResultParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.VerificationTaskID) == "" {
		return nil, NewError(CodeInvalidParams, "verificationTaskId is required")
	}
	if strings.TrimSpace(p.TaskID) == "" {
		return nil, NewError(CodeInvalidParams, "taskId is required")
	}
	if p.Status == "" {
		return nil, NewError(CodeInvalidParams, "status is required")
	}
	if p.ResultingStatus != "" {
		p.ResultingStatus = models.NormalizeStatus(p.ResultingStatus)
		if !p.ResultingStatus.Valid() {
			return nil, NewError(CodeInvalidParams, fmt.Sprintf("invalid resultingStatus: %s", p.ResultingStatus))
		}
	}
	return p, nil
}

// Result converts the parameters into the model record handlers consume.
func (p *ReportVerificationResultParams) Result() *models.VerificationResult {
	return &models.VerificationResult{
		VerificationTaskID: p.VerificationTaskID,
		TaskID:             p.TaskID,
		Status:             p.Status,
		Checklist:          p.Checklist,
		FailedItems:        p.FailedItems,
		ResultingStatus:    p.ResultingStatus,
	}
}

// ReportTestFailureParams are the typed parameters of reportTestFailure.
type ReportTestFailureParams struct {
	TaskID            string            `json:"taskId"`
	TestName          string            `json:"testName"`
	TestFile          string            `json:"testFile,omitempty"`
	Details           map[string]any    `json:"details,omitempty"`
	PreviousStatus    models.TaskStatus `json:"previousStatus,omitempty"`
	Investigate       bool              `json:"investigate,omitempty"`
	RecommendedAction string            `json:"recommendedAction,omitempty"`
}

// ParseReportTestFailureParams decodes and validates reportTestFailure
// parameters.
func ParseReportTestFailureParams(params map[string]any) (*ReportTestFailureParams, *Error) {
	p := &ReportTestFailureParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.TaskID) == "" {
		return nil, NewError(CodeInvalidParams, "taskId is required")
	}
	if strings.TrimSpace(p.TestName) == "" {
		return nil, NewError(CodeInvalidParams, "testName is required")
	}
	return p, nil
}

// Report converts the parameters into the model record handlers consume.
func (p *ReportTestFailureParams) Report() *models.TestFailureReport {
	return &models.TestFailureReport{
		TaskID:            p.TaskID,
		TestName:          p.TestName,
		TestFile:          p.TestFile,
		Details:           p.Details,
		PreviousStatus:    models.NormalizeStatus(p.PreviousStatus),
		Investigate:       p.Investigate,
		RecommendedAction: p.RecommendedAction,
	}
}

// AskQuestionParams are the typed parameters of askQuestion.
type AskQuestionParams struct {
	TaskID   string `json:"taskId,omitempty"`
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// ParseAskQuestionParams decodes and validates askQuestion parameters.
func ParseAskQuestionParams(params map[string]any) (*AskQuestionParams, *Error) {
	p := &AskQuestionParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Question) == "" {
		return nil, NewError(CodeInvalidParams, "question is required")
	}
	return p, nil
}

// ReportObservationParams are the typed parameters of reportObservation.
type ReportObservationParams struct {
	TaskID      string `json:"taskId,omitempty"`
	Observation string `json:"observation"`
	Category    string `json:"category,omitempty"`
}

// ParseReportObservationParams decodes and validates reportObservation
// parameters.
func ParseReportObservationParams(params map[string]any) (*ReportObservationParams, *Error) {
	p := &ReportObservationParams{}
	if err := decodeParams(params, p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Observation) == "" {
		return nil, NewError(CodeInvalidParams, "observation is required")
	}
	return p, nil
}
