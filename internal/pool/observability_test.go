package pool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/subpool/pkg/types"
)

func TestStatsReflectsBusyAndIdleWorkers(t *testing.T) {
	release := make(chan struct{})
	cfg := baseConfig()
	cfg.MaxWorkers = 2
	cfg.NewHandle = newHandleFactory(func(types.Task) (types.TaskResult, error) {
		<-release
		return types.OkResult("done", nil), nil
	})
	p := New(cfg, nil)
	defer p.Shutdown(context.Background(), false, 0)

	ch := p.Run(types.Task{InitialText: "x"})

	require.Eventually(t, func() bool {
		return p.Stats().BusyWorkers == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	awaitResult(t, ch)

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.BusyWorkers == 0 && s.IdleWorkers == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWorkerDetailsOneRowPerWorker(t *testing.T) {
	cfg := baseConfig()
	cfg.InitialWorkers = 3
	cfg.NewHandle = newHandleFactory(instantOK)
	p := New(cfg, nil)
	defer p.Shutdown(context.Background(), false, 0)

	details := p.WorkerDetails()
	assert.Len(t, details, 3)
}

func TestMetricsHandlerServesPrometheusFormat(t *testing.T) {
	p := New(baseConfig(), nil)
	defer p.Shutdown(context.Background(), false, 0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "subpool_total_workers")
}
