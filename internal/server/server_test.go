package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/foremanhq/foreman/internal/protocol"
)

func newTestServer() *Server {
	return New(nil)
}

func request(method string, params map[string]any, id any) *protocol.Request {
	data, _ := json.Marshal(map[string]any{
		"version": protocol.Version,
		"method":  method,
		"params":  params,
		"id":      id,
	})
	req, perr := protocol.ParseMessage(data)
	if perr != nil {
		panic(perr)
	}
	return req
}

func TestHandleRequestBeforeStart(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("ping", func(ctx context.Context, params map[string]any) (any, error) {
		return "pong", nil
	})

	resp := s.HandleRequest(context.Background(), request("ping", nil, "1"))
	if resp.Error == nil {
		t.Fatal("expected error before start")
	}
	if resp.Error.Code != protocol.CodeTaskQueueUnavailable {
		t.Errorf("expected code %d, got %d", protocol.CodeTaskQueueUnavailable, resp.Error.Code)
	}
}

func TestHandleRequestUnknownMethod(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("alpha", func(ctx context.Context, params map[string]any) (any, error) { return nil, nil })
	s.RegisterTool("beta", func(ctx context.Context, params map[string]any) (any, error) { return nil, nil })
	s.Start()

	resp := s.HandleRequest(context.Background(), request("gamma", nil, "1"))
	if resp.Error == nil || resp.Error.Code != protocol.CodeMethodNotFound {
		t.Fatalf("expected METHOD_NOT_FOUND, got %+v", resp.Error)
	}

	data, ok := resp.Error.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected error data map, got %T", resp.Error.Data)
	}
	methods, ok := data["availableMethods"].([]string)
	if !ok {
		t.Fatalf("expected availableMethods list, got %T", data["availableMethods"])
	}
	if len(methods) != 2 || methods[0] != "alpha" || methods[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", methods)
	}
}

func TestHandleRequestDispatchesWithDefaultedParams(t *testing.T) {
	s := newTestServer()
	var got map[string]any
	s.RegisterTool("inspect", func(ctx context.Context, params map[string]any) (any, error) {
		got = params
		return map[string]any{"ok": true}, nil
	})
	s.Start()

	resp := s.HandleRequest(context.Background(), request("inspect", nil, 1))
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if got == nil {
		t.Error("params should default to an empty map, not nil")
	}
}

func TestHandleRequestInvalidEnvelope(t *testing.T) {
	s := newTestServer()
	s.Start()

	req, _ := protocol.ParseMessage([]byte(`{"version":"1.0","method":"m","id":1}`))
	resp := s.HandleRequest(context.Background(), req)
	if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %+v", resp.Error)
	}
}

func TestHandleRequestTypedHandlerError(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("missing", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, protocol.NewError(protocol.CodeTaskNotFound, "task not found: t-9")
	})
	s.Start()

	resp := s.HandleRequest(context.Background(), request("missing", nil, "1"))
	if resp.Error == nil || resp.Error.Code != protocol.CodeTaskNotFound {
		t.Fatalf("typed handler error should keep its code, got %+v", resp.Error)
	}
}

func TestHandleRequestGenericHandlerError(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("broken", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, errors.New("disk on fire")
	})
	s.Start()

	resp := s.HandleRequest(context.Background(), request("broken", nil, "1"))
	if resp.Error == nil || resp.Error.Code != protocol.CodeInternalError {
		t.Fatalf("expected INTERNAL_ERROR, got %+v", resp.Error)
	}
}

func TestHandleRequestRecoversPanic(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("panicky", func(ctx context.Context, params map[string]any) (any, error) {
		panic("boom")
	})
	s.Start()

	resp := s.HandleRequest(context.Background(), request("panicky", nil, "1"))
	if resp.Error == nil || resp.Error.Code != protocol.CodeInternalError {
		t.Fatalf("panic should map to INTERNAL_ERROR, got %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "boom") {
		t.Errorf("panic detail should reach the message, got %q", resp.Error.Message)
	}
}

func TestRestartClearsRegistry(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("alpha", func(ctx context.Context, params map[string]any) (any, error) { return nil, nil })
	s.Start()

	s.Restart()
	if !s.Started() {
		t.Error("server should be started after restart")
	}
	if len(s.RegisteredMethods()) != 0 {
		t.Errorf("restart should clear the registry, got %v", s.RegisteredMethods())
	}

	resp := s.HandleRequest(context.Background(), request("alpha", nil, "1"))
	if resp.Error == nil || resp.Error.Code != protocol.CodeMethodNotFound {
		t.Errorf("previously registered tool should be gone after restart, got %+v", resp.Error)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestServer()
	s.Start()
	s.Start()
	if !s.Started() {
		t.Error("expected started")
	}
	s.Stop()
	s.Stop()
	if s.Started() {
		t.Error("expected stopped")
	}
}

func TestReRegisterOverwrites(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("tool", func(ctx context.Context, params map[string]any) (any, error) { return "old", nil })
	s.RegisterTool("tool", func(ctx context.Context, params map[string]any) (any, error) { return "new", nil })
	s.Start()

	resp := s.HandleRequest(context.Background(), request("tool", nil, "1"))
	if resp.Result != "new" {
		t.Errorf("re-registration should overwrite, got %v", resp.Result)
	}
}

func TestServeLineDelimited(t *testing.T) {
	s := newTestServer()
	s.RegisterTool("echo", func(ctx context.Context, params map[string]any) (any, error) {
		return params["value"], nil
	})
	s.Start()

	input := strings.Join([]string{
		`{"version":"2.0","method":"echo","params":{"value":"a"},"id":1}`,
		``,
		`not json`,
		`{"version":"2.0","method":"echo","params":{"value":"b"},"id":2}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("serve: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 response lines, got %d: %q", len(lines), out.String())
	}

	var first, second, third map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line not JSON: %v", err)
	}
	if first["result"] != "a" {
		t.Errorf("expected result a, got %v", first["result"])
	}

	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line not JSON: %v", err)
	}
	errObj, ok := second["error"].(map[string]any)
	if !ok || errObj["code"].(float64) != float64(protocol.CodeParseError) {
		t.Errorf("malformed line should produce a parse error response, got %v", second)
	}
	if second["id"] != nil {
		t.Errorf("parse error should carry null id, got %v", second["id"])
	}

	if err := json.Unmarshal([]byte(lines[2]), &third); err != nil {
		t.Fatalf("third line not JSON: %v", err)
	}
	if third["result"] != "b" {
		t.Errorf("expected result b, got %v", third["result"])
	}
}
