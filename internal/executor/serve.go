// ============================================================================
// Subpool Task Executor - Subprocess Entrypoint
// ============================================================================
//
// Package: internal/executor
// File: serve.go
// Purpose: The loop run by the executor subprocess itself (wired up by
// cmd/subd's hidden "exec-task" command). Reads one framed request,
// applies it, writes one framed response, exactly as the wire contract
// requires: the executor must produce exactly one response per
// request, or be terminated by the pool's timer.
//
// ============================================================================

package executor

import (
	"bufio"
	"io"
)

// Serve runs the executor subprocess main loop against r/w until r is
// exhausted (the parent closed its end of the pipe, the ordinary way a
// worker is retired during idle scale-down or shutdown) or a frame
// cannot be read. It never returns a value to its own caller describing
// the substitutions it ran - those leave over w, one response per
// request.
func Serve(r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for {
		var req execRequest
		if err := readFrame(reader, &req); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		resp := runRequest(req)

		if err := writeFrame(writer, resp); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
}
