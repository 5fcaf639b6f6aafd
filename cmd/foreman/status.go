package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/config"
	"github.com/foremanhq/foreman/internal/orchestrator"
	"github.com/foremanhq/foreman/internal/store"
	"github.com/foremanhq/foreman/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted task queue",
	Long: `Display the task queue as last persisted by the orchestrator.

Shows task counts by status and the live tasks in scheduling order. Reads
the durable store directly, so it works whether or not a server is running.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = store.DefaultDBPath("")
	}

	db, err := store.Open(dbPath)
	if err != nil {
		fmt.Println("No task queue found. Run 'foreman serve' to start one.")
		return nil
	}
	defer db.Close()

	data, ok, err := db.Get(orchestrator.TaskStateKey)
	if err != nil {
		return fmt.Errorf("read task state: %w", err)
	}
	if !ok {
		fmt.Println("Task queue is empty.")
		return nil
	}

	var records []struct {
		ID        string              `json:"id"`
		Title     string              `json:"title"`
		Priority  models.TaskPriority `json:"priority"`
		Status    models.TaskStatus   `json:"status"`
		CreatedAt string              `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse task state: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("Task queue is empty.")
		return nil
	}

	counts := make(map[models.TaskStatus]int)
	for _, rec := range records {
		counts[models.NormalizeStatus(rec.Status)]++
	}

	fmt.Printf("Tasks: %d total\n", len(records))
	for _, status := range []models.TaskStatus{
		models.StatusReady, models.StatusInProgress, models.StatusBlocked,
		models.StatusDone, models.StatusFailed,
	} {
		if counts[status] > 0 {
			fmt.Printf("  %s %d %s\n", statusSymbol(status), counts[status], status)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.ID < b.ID
	})

	fmt.Println()
	for _, rec := range records {
		status := models.NormalizeStatus(rec.Status)
		if status.Terminal() {
			continue
		}
		age := ""
		if created, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
			age = fmt.Sprintf(" (%s old)", time.Since(created).Round(time.Minute))
		}
		fmt.Printf("%s [%s] %s: %s%s\n", statusSymbol(status), rec.Priority, rec.ID, rec.Title, age)
	}

	return nil
}

// statusSymbol renders a colored marker for a task status.
func statusSymbol(status models.TaskStatus) string {
	switch status {
	case models.StatusReady:
		return color.GreenString("●")
	case models.StatusInProgress:
		return color.YellowString("●")
	case models.StatusBlocked:
		return color.RedString("●")
	case models.StatusDone:
		return color.GreenString("✓")
	case models.StatusFailed:
		return color.RedString("✗")
	default:
		return "●"
	}
}
