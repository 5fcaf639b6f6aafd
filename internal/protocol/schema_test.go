package protocol

import (
	"testing"

	"github.com/foremanhq/foreman/pkg/models"
)

func TestParseGetNextTaskParams(t *testing.T) {
	p, perr := ParseGetNextTaskParams(map[string]any{"status": "pending", "priority": "P1"})
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	if p.Status != models.StatusReady {
		t.Errorf("pending should normalize to ready, got %s", p.Status)
	}
	if p.Priority != models.PriorityP1 {
		t.Errorf("expected P1, got %s", p.Priority)
	}
}

func TestParseGetNextTaskParamsEmpty(t *testing.T) {
	p, perr := ParseGetNextTaskParams(map[string]any{})
	if perr != nil {
		t.Fatalf("empty params should be valid: %v", perr)
	}
	if p.Status != "" || p.Priority != "" {
		t.Error("expected zero filters")
	}
}

func TestParseGetNextTaskParamsInvalidFilter(t *testing.T) {
	_, perr := ParseGetNextTaskParams(map[string]any{"status": "exploded"})
	if perr == nil || perr.Code != CodeInvalidFilter {
		t.Fatalf("expected INVALID_FILTER, got %v", perr)
	}

	_, perr = ParseGetNextTaskParams(map[string]any{"priority": "P9"})
	if perr == nil || perr.Code != CodeInvalidFilter {
		t.Fatalf("expected INVALID_FILTER for priority, got %v", perr)
	}
}

func TestParseReportTaskStatusParams(t *testing.T) {
	p, perr := ParseReportTaskStatusParams(map[string]any{"taskId": "t-1", "status": "completed"})
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	if p.Status != models.StatusDone {
		t.Errorf("completed should normalize to done, got %s", p.Status)
	}
}

func TestParseReportTaskStatusParamsInvalid(t *testing.T) {
	if _, perr := ParseReportTaskStatusParams(map[string]any{"status": "done"}); perr == nil || perr.Code != CodeInvalidParams {
		t.Errorf("missing taskId should be INVALID_PARAMS, got %v", perr)
	}
	if _, perr := ParseReportTaskStatusParams(map[string]any{"taskId": "t-1", "status": "nope"}); perr == nil || perr.Code != CodeInvalidParams {
		t.Errorf("bad status should be INVALID_PARAMS, got %v", perr)
	}
	if _, perr := ParseReportTaskStatusParams(map[string]any{"taskId": 12, "status": "done"}); perr == nil || perr.Code != CodeInvalidParams {
		t.Errorf("mistyped taskId should be INVALID_PARAMS, got %v", perr)
	}
}

func TestParseReportVerificationResultParams(t *testing.T) {
	params := map[string]any{
		"verificationTaskId": "v-1",
		"taskId":             "t-1",
		"status":             "failed",
		"resultingStatus":    "failed",
		"failedItems": []any{
			map[string]any{"item": "lints clean", "reason": "gofmt diff"},
		},
	}
	p, perr := ParseReportVerificationResultParams(params)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}

	result := p.Result()
	if result.Status != models.VerificationFailed {
		t.Errorf("expected failed, got %s", result.Status)
	}
	if len(result.FailedItems) != 1 || result.FailedItems[0].Item != "lints clean" {
		t.Errorf("failed items not carried through: %+v", result.FailedItems)
	}
}

func TestParseReportVerificationResultParamsMissing(t *testing.T) {
	_, perr := ParseReportVerificationResultParams(map[string]any{"taskId": "t-1", "status": "passed"})
	if perr == nil || perr.Code != CodeInvalidParams {
		t.Fatalf("missing verificationTaskId should be INVALID_PARAMS, got %v", perr)
	}
}

func TestParseReportTestFailureParams(t *testing.T) {
	p, perr := ParseReportTestFailureParams(map[string]any{
		"taskId":   "t-1",
		"testName": "TestCheckout",
		"details":  map[string]any{"message": "nil pointer dereference"},
	})
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	report := p.Report()
	if report.TestName != "TestCheckout" {
		t.Errorf("unexpected test name %q", report.TestName)
	}
	if report.Details["message"] != "nil pointer dereference" {
		t.Error("details payload should pass through opaquely")
	}
}

func TestParseAskQuestionParamsRequiresQuestion(t *testing.T) {
	if _, perr := ParseAskQuestionParams(map[string]any{"taskId": "t-1"}); perr == nil || perr.Code != CodeInvalidParams {
		t.Errorf("missing question should be INVALID_PARAMS, got %v", perr)
	}
}

func TestParseReportObservationParamsRequiresObservation(t *testing.T) {
	if _, perr := ParseReportObservationParams(map[string]any{}); perr == nil || perr.Code != CodeInvalidParams {
		t.Errorf("missing observation should be INVALID_PARAMS, got %v", perr)
	}
}
