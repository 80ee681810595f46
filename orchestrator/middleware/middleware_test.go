package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/6amape9I/parallel--funetun/orchestrator/middleware"
	"github.com/6amape9I/parallel--funetun/pkg/chain"
	"github.com/6amape9I/parallel--funetun/pkg/roster"
	"github.com/6amape9I/parallel--funetun/pkg/storage"
	"github.com/go-kit/kit/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type countingCounter struct {
	methods []string
	total   float64
}

func (c *countingCounter) With(labelValues ...string) metrics.Counter {
	c.methods = append(c.methods, labelValues[1])

	return c
}

func (c *countingCounter) Add(delta float64) {
	c.total += delta
}

type countingHistogram struct {
	observations int
}

func (h *countingHistogram) With(...string) metrics.Histogram {
	return h
}

func (h *countingHistogram) Observe(float64) {
	h.observations++
}

func newService(t *testing.T) orchestrator.Service {
	t.Helper()

	svc := orchestrator.NewService(orchestrator.Config{
		ContractAddress: "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		Roster:          roster.Default(),
		Timing:          orchestrator.Timing{Interval: time.Hour},
		Seed:            5,
	}, chain.NewUnavailable(), storage.NewInMemoryStorage(), nil, slog.Default())
	t.Cleanup(func() {
		_ = svc.Shutdown(context.Background())
	})

	return svc
}

func TestDecoratedService(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	counter := &countingCounter{}
	latency := &countingHistogram{}

	svc := newService(t)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(noop.NewTracerProvider().Tracer("test"), svc)
	svc = middleware.Metrics(counter, latency, svc)
	ctx := context.Background()

	_, err := svc.StepSimulation(ctx)
	require.NoError(t, err)
	_, err = svc.ReportTaskRequest(ctx, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", 1)
	require.NoError(t, err)
	_, err = svc.Graph(ctx)
	require.NoError(t, err)

	_, err = svc.StartSimulation(ctx)
	require.NoError(t, err)
	_, err = svc.StepSimulation(ctx)
	assert.ErrorIs(t, err, orchestrator.ErrSimulationRunning)
	_, err = svc.StopSimulation(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 6, counter.total, 0.001)
	assert.Equal(t, 6, latency.observations)
	assert.Equal(t, "step-simulation", counter.methods[0])

	logs := buf.String()
	assert.Contains(t, logs, "Step simulation completed successfully")
	assert.Contains(t, logs, "Step simulation failed")
	assert.Contains(t, logs, "Report task request completed successfully")
	assert.Contains(t, logs, "Get graph completed successfully")
}
