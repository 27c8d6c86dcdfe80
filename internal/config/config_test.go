package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesWorkedExampleValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Pool.MinWorkers)
	assert.Equal(t, 4, cfg.Pool.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.Pool.TaskTimeout)
	assert.Equal(t, 30*time.Second, cfg.Pool.IdleTimeout)
	assert.Equal(t, 20, cfg.Pool.DrainSurgeCap)
	assert.Equal(t, 0.1, cfg.Health.ErrCap)
	assert.Equal(t, 10, cfg.Orchestrator.MaxChainLength)
	assert.True(t, cfg.StatusAPI.Enabled)
}

func TestLoadOverlaysPartialYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subd.yaml")
	contents := "pool:\n  max_workers: 16\nhealth:\n  queue_cap: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Pool.MaxWorkers)
	assert.Equal(t, 50, cfg.Health.QueueCap)
	// Untouched fields keep their default values.
	assert.Equal(t, 1, cfg.Pool.MinWorkers)
	assert.Equal(t, 5*time.Second, cfg.Pool.TaskTimeout)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool: [this is not a mapping"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
