// ============================================================================
// subd run - Start the Daemon
// ============================================================================
//
// Package: main (cmd/subd)
// File: run.go
//
// ============================================================================

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/subpool/internal/chatbot"
	"github.com/corvidlabs/subpool/internal/config"
	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/internal/orchestrator"
	"github.com/corvidlabs/subpool/internal/pool"
	"github.com/corvidlabs/subpool/internal/statusapi"
	"github.com/corvidlabs/subpool/internal/store"
)

func buildRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the pool, orchestrator and status servers, reading chat lines from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

// stdoutReplySender is the default ReplySender: it prints to stdout and
// mints a synthetic message id, standing in for a real chat transport.
type stdoutReplySender struct {
	nextID int
}

func (s *stdoutReplySender) SendOrEdit(targetID, text string, isEdit bool) string {
	s.nextID++
	verb := "sent"
	if isEdit {
		verb = "edited"
	}
	fmt.Printf("[%s reply to %s] %s\n", verb, targetID, text)
	return strconv.Itoa(s.nextID)
}

func runDaemon() error {
	logger := slog.Default()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Warn("falling back to default config", "error", err)
		cfg = config.Default()
	}

	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}

	poolCfg := pool.Config{
		MinWorkers:        cfg.Pool.MinWorkers,
		MaxWorkers:        cfg.Pool.MaxWorkers,
		InitialWorkers:    cfg.Pool.InitialWorkers,
		TaskTimeout:       cfg.Pool.TaskTimeout,
		IdleTimeout:       cfg.Pool.IdleTimeout,
		IdleCheckInterval: cfg.Pool.IdleCheckInterval,
		DrainSurgeCap:     cfg.Pool.DrainSurgeCap,
		ExecutorSpec:      executor.Spec{Command: self, Args: []string{"exec-task"}},
		HealthQueueCap:    cfg.Health.QueueCap,
		HealthErrCap:      cfg.Health.ErrCap,
	}

	p := pool.New(poolCfg, logger)

	orch := orchestrator.New(p, orchestrator.Config{MaxMessageLength: cfg.Orchestrator.MaxMessageLength})
	st := store.New()
	sender := &stdoutReplySender{}
	bot := chatbot.New(orch, st, sender, cfg.Orchestrator.MaxChainLength, cfg.Pool.TaskTimeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.StatusAPI.Enabled {
		go serveStatusAPI(p, cfg.StatusAPI.Addr, logger)
	}

	stopCleanup := make(chan struct{})
	go cleanupLoop(st, cfg.Store.CleanupInterval, cfg.Store.RetainFor, stopCleanup)

	logger.Info("subd started", "status_addr", cfg.StatusAPI.Addr)
	fmt.Println("subd is running. Type `s/pattern/replacement/flags` lines on stdin as chat messages (Ctrl+C to stop).")

	done := make(chan struct{})
	go func() {
		defer close(done)
		readStdinLoop(bot)
	}()

	select {
	case <-sigCh:
	case <-done:
	}
	close(stopCleanup)

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pool.DrainTimeout+time.Second)
	defer cancel()
	p.Shutdown(ctx, true, cfg.Pool.DrainTimeout)
	logger.Info("stopped")
	return nil
}

func readStdinLoop(bot *chatbot.Bot) {
	scanner := bufio.NewScanner(os.Stdin)
	msgID := 0
	for scanner.Scan() {
		msgID++
		bot.HandleMessage("stdin", strconv.Itoa(msgID), scanner.Text())
	}
}

func serveStatusAPI(p *pool.Pool, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/", statusapi.New(p).Router())
	mux.Handle("/metrics", p.MetricsHandler())

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("status API server error", "error", err)
	}
}

func cleanupLoop(st *store.Store, interval, retainFor time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st.CleanupOlderThan(time.Now().Add(-retainFor))
		case <-stop:
			return
		}
	}
}
