// ============================================================================
// subd exec-task - Hidden Executor Subprocess Entrypoint
// ============================================================================
//
// Package: main (cmd/subd)
// File: exec_task.go
// Purpose: Re-exec'd by the pool itself (internal/pool.spawnWorkerLocked,
// via internal/executor.Spawn) - never invoked directly by an operator.
// Speaks the framed JSON protocol over stdin/stdout; all logging from
// this process goes to stderr so it never corrupts the wire.
//
// ============================================================================

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/subpool/internal/executor"
)

func buildExecTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "exec-task",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executor.Serve(os.Stdin, os.Stdout)
		},
	}
	return cmd
}
