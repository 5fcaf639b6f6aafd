package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Task Orchestration & Tool-Call Protocol Engine",
	Long: `Foreman coordinates autonomous coding agents against a shared task queue.

Agents pull work, report progress, request clarification, and report
verification and test outcomes through a line-delimited request/response
protocol. The orchestrator maintains task state, enforces dependency and
capacity constraints, and persists queue state across restarts.

Core capabilities:
- Priority-ordered task queue with duplicate and cycle detection
- Dependency-gated scheduling with deterministic ordering
- Crash-safe debounced persistence to SQLite
- Typed tool-call protocol with a stable error taxonomy`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
