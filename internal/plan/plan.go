// Package plan loads tasks from a YAML plan file and admits them into the
// orchestrator. Tasks admitted from a plan carry an origin tag and a ticket
// id derived from their plan entry, so re-reading the same plan never
// duplicates live work.
package plan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/foremanhq/foreman/pkg/models"
)

// Plan is the parsed form of a plan file.
type Plan struct {
	// Name labels the plan, used in prompts and logs.
	Name string `yaml:"name"`
	// Entries are the plan's task entries, in plan order.
	Entries []Entry `yaml:"tasks"`
}

// Entry is one task entry in a plan file.
type Entry struct {
	ID                 string   `yaml:"id"`
	Title              string   `yaml:"title"`
	Description        string   `yaml:"description"`
	Priority           string   `yaml:"priority"`
	DependsOn          []string `yaml:"depends_on"`
	BlockedBy          []string `yaml:"blocked_by"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
	EstimatedHours     float64  `yaml:"estimated_hours"`
	Ticket             string   `yaml:"ticket"`
}

// Parse decodes a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	for i, entry := range p.Entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("plan task %d: missing id", i)
		}
		if entry.Title == "" {
			return nil, fmt.Errorf("plan task %s: missing title", entry.ID)
		}
	}
	return &p, nil
}

// Load reads and parses the plan file at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return Parse(data)
}

// Tasks converts the plan entries into task models. Unknown priorities
// default to P2; the ticket id defaults to the plan entry id so admission
// dedupes re-reads of the same plan.
func (p *Plan) Tasks(now time.Time) []*models.Task {
	tasks := make([]*models.Task, 0, len(p.Entries))
	for _, entry := range p.Entries {
		priority := models.TaskPriority(entry.Priority)
		if !priority.Valid() {
			priority = models.PriorityP2
		}

		ticket := entry.Ticket
		if ticket == "" {
			ticket = entry.ID
		}

		task := &models.Task{
			ID:                 entry.ID,
			Title:              entry.Title,
			Description:        entry.Description,
			Priority:           priority,
			Status:             models.StatusReady,
			Dependencies:       entry.DependsOn,
			BlockedBy:          entry.BlockedBy,
			AcceptanceCriteria: entry.AcceptanceCriteria,
			CreatedAt:          now,
			EstimatedHours:     entry.EstimatedHours,
			Metadata: map[string]string{
				models.MetaTicketID: ticket,
				models.MetaOrigin:   "plan",
			},
		}
		task.Normalize(now)
		tasks = append(tasks, task)
	}
	return tasks
}
