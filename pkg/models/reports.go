package models

// VerificationStatus is the outcome of checking a task against its
// acceptance criteria.
type VerificationStatus string

const (
	VerificationPassed VerificationStatus = "passed"
	VerificationFailed VerificationStatus = "failed"
)

// CheckOutcome is one entry in a verification checklist.
type CheckOutcome struct {
	// Item names the criterion that was checked.
	Item string `json:"item"`
	// Passed reports whether the check succeeded.
	Passed bool `json:"passed"`
}

// FailedItem describes a checklist item that did not pass.
type FailedItem struct {
	// Item names the failed criterion.
	Item string `json:"item"`
	// Reason explains why it failed.
	Reason string `json:"reason,omitempty"`
}

// VerificationResult is the transient record submitted by the
// reportVerificationResult tool. It is not persisted as its own entity; it
// drives status transitions and may spawn remediation tasks.
type VerificationResult struct {
	// VerificationTaskID identifies the verification task itself.
	VerificationTaskID string `json:"verificationTaskId"`
	// TaskID identifies the original task that was verified.
	TaskID string `json:"taskId"`
	// Status is the overall verification outcome.
	Status VerificationStatus `json:"status"`
	// Checklist holds the individual check outcomes.
	Checklist []CheckOutcome `json:"checklist,omitempty"`
	// FailedItems lists the checks that failed, with reasons.
	FailedItems []FailedItem `json:"failedItems,omitempty"`
	// ResultingStatus is the desired status for the original task.
	ResultingStatus TaskStatus `json:"resultingStatus"`
}

// TestFailureReport is the transient record submitted by the
// reportTestFailure tool.
type TestFailureReport struct {
	// TaskID identifies the task whose tests failed.
	TaskID string `json:"taskId"`
	// TestName names the failing test.
	TestName string `json:"testName"`
	// TestFile is the file containing the failing test.
	TestFile string `json:"testFile,omitempty"`
	// Details is an opaque structured failure payload.
	Details map[string]any `json:"details,omitempty"`
	// PreviousStatus is the task's status immediately before the failure.
	PreviousStatus TaskStatus `json:"previousStatus,omitempty"`
	// Investigate requests creation of an investigation task.
	Investigate bool `json:"investigate,omitempty"`
	// RecommendedAction is the caller's suggested next step.
	RecommendedAction string `json:"recommendedAction,omitempty"`
}
