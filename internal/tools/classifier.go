package tools

import (
	"fmt"
	"strings"

	"github.com/foremanhq/foreman/pkg/models"
)

// Failure categories produced by ClassifyFailure.
const (
	CauseNullReference = "null-reference"
	CauseTimeout       = "timeout"
	CauseAssertion     = "assertion"
	CausePanic         = "panic"
	CauseCompilation   = "compilation"
	CauseUnknown       = "unknown"
)

// causePatterns maps lowercase substrings to a likeliest-cause category.
// First match wins, so more specific patterns come first.
var causePatterns = []struct {
	pattern string
	cause   string
}{
	{"nil pointer", CauseNullReference},
	{"null pointer", CauseNullReference},
	{"undefined", CauseNullReference},
	{"is not a function", CauseNullReference},
	{"cannot read propert", CauseNullReference},
	{"deadline exceeded", CauseTimeout},
	{"timed out", CauseTimeout},
	{"timeout", CauseTimeout},
	{"panic:", CausePanic},
	{"index out of range", CausePanic},
	{"cannot find module", CauseCompilation},
	{"compilation failed", CauseCompilation},
	{"syntax error", CauseCompilation},
	{"expected", CauseAssertion},
	{"assert", CauseAssertion},
	{"want", CauseAssertion},
}

// ClassifyFailure performs a lightweight heuristic classification of a test
// failure payload into a likeliest-cause category for triage. The details
// payload is opaque; every string value in it is scanned.
func ClassifyFailure(report *models.TestFailureReport) string {
	var parts []string
	parts = append(parts, report.TestName, report.RecommendedAction)
	for _, value := range report.Details {
		parts = append(parts, fmt.Sprintf("%v", value))
	}
	haystack := strings.ToLower(strings.Join(parts, " "))

	for _, entry := range causePatterns {
		if strings.Contains(haystack, entry.pattern) {
			return entry.cause
		}
	}
	return CauseUnknown
}
