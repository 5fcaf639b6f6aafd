// Package server binds the protocol layer to a transport. It owns the tool
// registry, dispatches validated requests to registered handlers, and
// exposes a start/stop/restart lifecycle.
package server

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/foremanhq/foreman/internal/protocol"
)

// ToolHandler executes one named tool call. Params is never nil; it defaults
// to an empty map when the request omitted params. A returned *protocol.Error
// keeps its code on the wire; any other error becomes a generic internal
// error.
type ToolHandler func(ctx context.Context, params map[string]any) (any, error)

// Server routes requests to tool handlers by method name.
type Server struct {
	mu      sync.RWMutex
	started bool
	tools   map[string]ToolHandler
	logger  *log.Logger
}

// New creates a stopped server with an empty tool registry. A nil logger
// disables server logging.
func New(logger *log.Logger) *Server {
	return &Server{
		tools:  make(map[string]ToolHandler),
		logger: logger,
	}
}

// RegisterTool adds or replaces the handler for a method name.
func (s *Server) RegisterTool(name string, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[name] = handler
}

// UnregisterTool removes the handler for a method name, if present.
func (s *Server) UnregisterTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tools, name)
}

// RegisteredMethods returns the currently registered method names, sorted.
func (s *Server) RegisteredMethods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start marks the server as accepting requests. Idempotent.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
}

// Stop marks the server as unavailable. Idempotent; registered tools are
// retained.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

// Started reports whether the server is accepting requests.
func (s *Server) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Restart stops the server, clears the tool registry, and starts again.
// Callers must re-register tools afterwards; a restart is a full reset.
func (s *Server) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.tools = make(map[string]ToolHandler)
	s.started = true
}

// HandleRequest validates and dispatches one request, always producing a
// response. Handler errors and panics never propagate to the transport.
func (s *Server) HandleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	if !s.Started() {
		return protocol.CreateErrorResponse(
			protocol.CodeTaskQueueUnavailable, "task queue unavailable: server not started", req.ID, nil)
	}

	if verr := req.Validate(); verr != nil {
		return protocol.ErrorToResponse(verr, req.ID)
	}

	s.mu.RLock()
	handler, ok := s.tools[req.Method]
	s.mu.RUnlock()
	if !ok {
		return protocol.CreateErrorResponse(
			protocol.CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method),
			req.ID,
			map[string]any{"availableMethods": s.RegisteredMethods()})
	}

	params := req.Params
	if params == nil {
		params = make(map[string]any)
	}

	result, err := s.invoke(ctx, handler, params)
	if err != nil {
		s.logf("method %s failed: %v", req.Method, err)
		return protocol.ErrorToResponse(err, req.ID)
	}
	return protocol.CreateSuccessResponse(result, req.ID)
}

// invoke runs a handler, converting a panic into an error so one misbehaving
// tool cannot take down the dispatch loop.
func (s *Server) invoke(ctx context.Context, handler ToolHandler, params map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, params)
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
