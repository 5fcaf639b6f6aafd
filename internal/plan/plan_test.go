package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foremanhq/foreman/pkg/models"
)

const samplePlan = `
name: checkout-revamp
tasks:
  - id: cart-api
    title: Rework cart API
    description: Split cart mutations out of the monolith handler.
    priority: P1
    acceptance_criteria:
      - cart mutations covered by handler tests
    estimated_hours: 6
    ticket: SHOP-101
  - id: cart-ui
    title: Wire new cart API into the UI
    priority: P2
    depends_on: [cart-api]
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(samplePlan))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Name != "checkout-revamp" {
		t.Errorf("unexpected plan name %q", p.Name)
	}
	if len(p.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(p.Entries))
	}
}

func TestParseRejectsMissingID(t *testing.T) {
	if _, err := Parse([]byte("tasks:\n  - title: nameless\n")); err == nil {
		t.Error("missing id should be rejected")
	}
}

func TestParseRejectsMissingTitle(t *testing.T) {
	if _, err := Parse([]byte("tasks:\n  - id: t-1\n")); err == nil {
		t.Error("missing title should be rejected")
	}
}

func TestTasksConversion(t *testing.T) {
	p, err := Parse([]byte(samplePlan))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	now := time.Now()
	tasks := p.Tasks(now)

	first := tasks[0]
	if first.Priority != models.PriorityP1 {
		t.Errorf("expected P1, got %s", first.Priority)
	}
	if first.TicketID() != "SHOP-101" {
		t.Errorf("explicit ticket should carry through, got %q", first.TicketID())
	}
	if first.Origin() != "plan" {
		t.Errorf("expected plan origin, got %q", first.Origin())
	}
	if first.EstimatedHours != 6 {
		t.Errorf("expected 6 estimated hours, got %v", first.EstimatedHours)
	}

	second := tasks[1]
	if second.TicketID() != "cart-ui" {
		t.Errorf("ticket should default to entry id, got %q", second.TicketID())
	}
	if len(second.Dependencies) != 1 || second.Dependencies[0] != "cart-api" {
		t.Errorf("dependencies lost: %v", second.Dependencies)
	}
	if !second.CreatedAt.Equal(now) {
		t.Errorf("creation time should be the admission time")
	}
}

func TestTasksDefaultsUnknownPriority(t *testing.T) {
	p, err := Parse([]byte("tasks:\n  - id: t-1\n    title: odd\n    priority: P9\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := p.Tasks(time.Now())[0].Priority; got != models.PriorityP2 {
		t.Errorf("unknown priority should default to P2, got %s", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(samplePlan), 0644); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(p.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(p.Entries))
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(samplePlan), 0644); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	plans := make(chan *Plan, 4)
	w, err := Watch(path, func(p *Plan) { plans <- p })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	updated := samplePlan + "  - id: cart-metrics\n    title: Cart conversion metrics\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("rewrite plan: %v", err)
	}

	select {
	case p := <-plans:
		if len(p.Entries) != 3 {
			t.Errorf("expected reloaded plan with 3 entries, got %d", len(p.Entries))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected a plan reload after write")
	}
}
