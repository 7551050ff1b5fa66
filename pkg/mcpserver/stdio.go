package mcpserver

import (
	"bufio"
	"context"
	"io"
)

// maxLineBytes bounds a single JSON-RPC message; tool params are small
// structured objects, never bulk payloads (resume bytes travel by
// input_path, not inline).
const maxLineBytes = 1 << 20

// Serve reads newline-delimited JSON-RPC 2.0 messages from r, dispatches
// each through HandleMessage, and writes the newline-delimited response
// to w. authHeader is the bearer token presented once for the whole
// session (stdio transports have no per-message headers). Serve returns
// when r is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer, authHeader string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.HandleMessage(ctx, authHeader, line)
		if _, err := w.Write(append(append([]byte(nil), resp...), '\n')); err != nil {
			return err
		}
	}
	return scanner.Err()
}
