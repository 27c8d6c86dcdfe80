// ============================================================================
// Subpool Configuration
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: YAML configuration loading for cmd/subd.
//
// Generalizes: internal/cli.Config + loadConfig from the job-queue
// lineage - same "flat YAML sections, yaml tags, os.ReadFile +
// yaml.Unmarshal" shape, reshaped around pool/health/orchestrator/
// chatbot sections instead of worker/WAL/snapshot/metrics.
//
// ============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete on-disk configuration for a subpool daemon.
type Config struct {
	Pool struct {
		MinWorkers        int           `yaml:"min_workers"`
		MaxWorkers        int           `yaml:"max_workers"`
		InitialWorkers    int           `yaml:"initial_workers"`
		TaskTimeout       time.Duration `yaml:"task_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		IdleCheckInterval time.Duration `yaml:"idle_check_interval"`
		DrainSurgeCap     int           `yaml:"drain_surge_cap"`
		DrainTimeout      time.Duration `yaml:"drain_timeout"`
	} `yaml:"pool"`

	Health struct {
		QueueCap int     `yaml:"queue_cap"`
		ErrCap   float64 `yaml:"err_cap"`
	} `yaml:"health"`

	Orchestrator struct {
		MaxChainLength   int `yaml:"max_chain_length"`
		MaxMessageLength int `yaml:"max_message_length"`
	} `yaml:"orchestrator"`

	Store struct {
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		RetainFor       time.Duration `yaml:"retain_for"`
	} `yaml:"store"`

	StatusAPI struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"status_api"`
}

// Default returns a Config populated with sensible out-of-the-box
// values for running a standalone instance.
func Default() Config {
	var cfg Config
	cfg.Pool.MinWorkers = 1
	cfg.Pool.MaxWorkers = 4
	cfg.Pool.InitialWorkers = 1
	cfg.Pool.TaskTimeout = 5 * time.Second
	cfg.Pool.IdleTimeout = 30 * time.Second
	cfg.Pool.IdleCheckInterval = 5 * time.Second
	cfg.Pool.DrainSurgeCap = 20
	cfg.Pool.DrainTimeout = 5 * time.Second
	cfg.Health.QueueCap = 20
	cfg.Health.ErrCap = 0.1
	cfg.Orchestrator.MaxChainLength = 10
	cfg.Orchestrator.MaxMessageLength = 4096
	cfg.Store.CleanupInterval = 10 * time.Minute
	cfg.Store.RetainFor = 24 * time.Hour
	cfg.StatusAPI.Enabled = true
	cfg.StatusAPI.Addr = ":9091"
	return cfg
}

// Load reads and parses a YAML config file at path, starting from
// Default() so a partial file only overrides what it mentions.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
