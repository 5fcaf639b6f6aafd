package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/foremanhq/foreman/internal/protocol"
)

// maxLineBytes bounds a single request line. Oversized lines fail the scan
// rather than exhausting memory.
const maxLineBytes = 4 * 1024 * 1024

// HandleMessage processes one raw transport message and returns the encoded
// response line. A message that is not valid JSON yields a parse-error
// response with a null id, since no id could be recovered.
func (s *Server) HandleMessage(ctx context.Context, data []byte) []byte {
	var resp *protocol.Response

	req, perr := protocol.ParseMessage(data)
	if perr != nil {
		resp = protocol.ErrorToResponse(perr, nil)
	} else {
		resp = s.HandleRequest(ctx, req)
	}

	out, err := protocol.FormatResponse(resp)
	if err != nil {
		s.logf("encode response: %v", err)
		fallback := protocol.CreateErrorResponse(
			protocol.CodeInternalError, "failed to encode response", resp.ID, nil)
		out, _ = protocol.FormatResponse(fallback)
	}
	return out
}

// Serve reads newline-delimited requests from r and writes one response line
// per request to w. It returns when r is exhausted, the context is
// cancelled, or a write fails. Blank lines are skipped.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		resp := s.HandleMessage(ctx, line)
		if _, err := w.Write(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// ListenAndServe accepts connections on l and serves each with Serve. It
// returns when the listener is closed or the context is cancelled. Per-
// connection errors are logged, not fatal.
func (s *Server) ListenAndServe(ctx context.Context, l net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			defer conn.Close()
			if err := s.Serve(ctx, conn, conn); err != nil && ctx.Err() == nil {
				s.logf("connection %s: %v", conn.RemoteAddr(), err)
			}
		}(conn)
	}
}
