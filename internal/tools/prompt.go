package tools

import (
	"fmt"
	"strings"

	"github.com/foremanhq/foreman/pkg/models"
)

// buildPrompt renders the detailed work prompt attached to a task handed
// out by getNextTask.
func (s *Service) buildPrompt(task *models.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Task %s: %s\n\n", task.ID, task.Title)
	fmt.Fprintf(&b, "Priority: %s\n\n", task.Priority)

	if task.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", task.Description)
	}

	if len(task.AcceptanceCriteria) > 0 {
		b.WriteString("### Acceptance Criteria\n")
		for _, criterion := range task.AcceptanceCriteria {
			fmt.Fprintf(&b, "- %s\n", criterion)
		}
		b.WriteString("\n")
	}

	if len(task.Dependencies) > 0 {
		fmt.Fprintf(&b, "Depends on: %s\n", strings.Join(task.Dependencies, ", "))
	}
	if len(task.BlockedBy) > 0 {
		fmt.Fprintf(&b, "Noted blockers (informational): %s\n", strings.Join(task.BlockedBy, ", "))
	}

	if s.planRef != "" {
		fmt.Fprintf(&b, "\nConsult the plan at %s for broader context.\n", s.planRef)
	}

	fmt.Fprintf(&b, "\nReport progress with reportTaskStatus using taskId %q.\n", task.ID)
	return b.String()
}
