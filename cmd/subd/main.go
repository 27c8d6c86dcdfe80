// ============================================================================
// subd - Subpool Daemon Entrypoint
// ============================================================================
//
// Package: main (cmd/subd)
// File: main.go
// Purpose: Cobra-based CLI entrypoint, replacing cmd/demo/main.go's ad
// hoc os.Args[1] dispatch with the same rootCmd/subcommand shape
// internal/cli.BuildCLI uses.
//
// Commands:
//   subd run         - start the pool, orchestrator, chatbot glue and
//                       status/metrics HTTP servers; block on SIGINT/SIGTERM
//   subd status       - query a running daemon's /stats endpoint
//   subd exec-task     - hidden; the executor subprocess entrypoint re-exec'd
//                       by the pool itself, never invoked directly by a user
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "subd",
		Short:   "subd runs a dynamically-scaling regex substitution worker pool",
		Version: "1.0.0",
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	root.AddCommand(buildRunCommand())
	root.AddCommand(buildStatusCommand())
	root.AddCommand(buildExecTaskCommand())

	return root
}
