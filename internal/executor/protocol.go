// ============================================================================
// Subpool Task Executor - Wire Protocol
// ============================================================================
//
// Package: internal/executor
// File: protocol.go
// Purpose: The length-prefixed JSON frame format spoken between the pool
// (parent process) and the executor subprocess (child process) over a
// pipe. A subprocess with a framed JSON pipe is the chosen realisation
// of the executor isolation capability.
//
// Frame layout: a 4-byte big-endian length prefix followed by that many
// bytes of JSON. One frame in, one frame out, per task.
//
// ============================================================================

package executor

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single frame to guard against a misbehaving or
// malicious child writing an unbounded length prefix.
const maxFrameBytes = 16 << 20 // 16 MiB

// ErrFrameTooLarge is returned by readFrame when the length prefix
// exceeds maxFrameBytes.
var ErrFrameTooLarge = errors.New("executor: frame exceeds maximum size")

// wireCommand is one SubstitutionCommand as it crosses the wire.
type wireCommand struct {
	Pattern     string `json:"pattern"`
	Flags       string `json:"flags"`
	Replacement string `json:"replacement"`
}

// execRequest is the request frame: initial text, the ordered commands
// to apply, and whether the caller wants a performance reading back.
type execRequest struct {
	InitialText        string        `json:"initial_text"`
	Commands           []wireCommand `json:"commands"`
	IncludePerformance bool          `json:"include_performance"`
}

// execResponse is the response frame: result text, an optional timing
// in milliseconds, and an error string when the chain failed.
type execResponse struct {
	Result        string   `json:"result"`
	PerformanceMS *float64 `json:"performance_ms"`
	Error         string   `json:"error,omitempty"`
}

// writeFrame marshals v as JSON and writes it as one length-prefixed frame.
func writeFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("executor: marshal frame: %w", err)
	}
	var lengthPrefix [4]byte
	binary.BigEndian.PutUint32(lengthPrefix[:], uint32(len(payload)))
	if _, err := w.Write(lengthPrefix[:]); err != nil {
		return fmt.Errorf("executor: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("executor: write frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame and unmarshals it into v.
func readFrame(r io.Reader, v any) error {
	var lengthPrefix [4]byte
	if _, err := io.ReadFull(r, lengthPrefix[:]); err != nil {
		return err // EOF propagates as-is so callers can distinguish clean shutdown
	}
	length := binary.BigEndian.Uint32(lengthPrefix[:])
	if length > maxFrameBytes {
		return ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("executor: read frame body: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("executor: unmarshal frame: %w", err)
	}
	return nil
}
