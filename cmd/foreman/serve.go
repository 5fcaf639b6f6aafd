package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foremanhq/foreman/internal/config"
	"github.com/foremanhq/foreman/internal/orchestrator"
	"github.com/foremanhq/foreman/internal/plan"
	"github.com/foremanhq/foreman/internal/server"
	"github.com/foremanhq/foreman/internal/store"
	"github.com/foremanhq/foreman/internal/tools"
)

var (
	serveListen   string
	servePlanPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task orchestration server",
	Long: `Start the orchestrator, restore persisted tasks, and serve tool calls.

By default requests are read from stdin and responses written to stdout, one
JSON message per line. With --listen, a TCP listener serves the same
protocol to multiple concurrent agents.

If a plan file is configured, its tasks are admitted at startup; with
plan.watch enabled, edits to the plan file are re-admitted live.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "TCP listen address (default: stdio)")
	serveCmd.Flags().StringVar(&servePlanPath, "plan", "", "YAML plan file to admit tasks from")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}
	if servePlanPath != "" {
		cfg.Plan.Path = servePlanPath
	}

	logger := log.New(os.Stderr, "foreman: ", log.LstdFlags)

	// Durable store; degrade to memory if the database cannot be opened.
	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = store.DefaultDBPath("")
	}
	var kv store.KV
	var tickets store.TicketStore
	if db, err := store.Open(dbPath); err != nil {
		logger.Printf("open store %s: %v, falling back to memory", dbPath, err)
		kv = store.NewMemoryKV()
		tickets = store.NewMemoryTicketStore()
	} else {
		defer db.Close()
		kv = db
		tickets = db
	}

	debugLogger, err := orchestrator.NewDebugLogger(cfg.Logging.DebugLog)
	if err != nil {
		logger.Printf("debug log unavailable: %v", err)
		debugLogger = orchestrator.NopLogger()
	}
	defer debugLogger.Close()

	// Queue activity stream; drained into the server log. Closed after the
	// orchestrator shuts down so the final flush events still land.
	emitter := orchestrator.NewEventEmitter(64)
	defer emitter.Close()
	go func() {
		for event := range emitter.Events() {
			line := string(event.Type)
			if event.TaskID != "" {
				line += " task=" + event.TaskID
			}
			if event.Message != "" {
				line += ": " + event.Message
			}
			logger.Print(line)
		}
	}()

	orc := orchestrator.New(kv,
		orchestrator.WithMaxQueueSize(cfg.Queue.MaxSize),
		orchestrator.WithSaveDebounce(cfg.Queue.SaveDebounce),
		orchestrator.WithLogger(debugLogger),
		orchestrator.WithEventEmitter(emitter),
	)
	orc.InitializeWithPersistence()
	defer orc.Shutdown()

	if cfg.Plan.Path != "" {
		admitPlan := func(p *plan.Plan) {
			admitted := 0
			for _, task := range p.Tasks(time.Now()) {
				if orc.AddTask(task) {
					admitted++
				}
			}
			logger.Printf("plan %s: admitted %d of %d tasks", cfg.Plan.Path, admitted, len(p.Entries))
		}

		if p, err := plan.Load(cfg.Plan.Path); err != nil {
			logger.Printf("load plan: %v", err)
		} else {
			admitPlan(p)
		}

		if cfg.Plan.Watch {
			watcher, err := plan.Watch(cfg.Plan.Path, admitPlan)
			if err != nil {
				logger.Printf("watch plan: %v", err)
			} else {
				defer watcher.Close()
			}
		}
	}

	srv := server.New(logger)
	svc := tools.NewService(orc, tickets, cfg.Plan.Path)
	svc.RegisterAll(srv)
	srv.Start()
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Listen != "" {
		listener, err := net.Listen("tcp", cfg.Server.Listen)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Server.Listen, err)
		}
		logger.Printf("serving on %s", listener.Addr())
		if err := srv.ListenAndServe(ctx, listener); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	logger.Printf("serving on stdio")
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
