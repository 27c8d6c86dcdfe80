// ============================================================================
// subd status - Query a Running Daemon
// ============================================================================
//
// Package: main (cmd/subd)
// File: status.go
//
// ============================================================================

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func buildStatusCommand() *cobra.Command {
	var addr string
	var endpoint string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running subd daemon's status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchStatus(addr, endpoint)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:9091", "status API base address")
	cmd.Flags().StringVar(&endpoint, "endpoint", "/stats", "status API endpoint: /stats, /health or /workers")
	return cmd
}

func fetchStatus(addr, endpoint string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + endpoint)
	if err != nil {
		return fmt.Errorf("status: request %s%s: %w", addr, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("status: read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
