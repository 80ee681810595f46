package middleware

import (
	"context"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/go-kit/kit/metrics"
)

var _ orchestrator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     orchestrator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc orchestrator.Service) orchestrator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) ReportTaskRequest(ctx context.Context, trainer string, jobID uint64) (orchestrator.Task, error) {
	defer mm.observe("report-task-request", time.Now())

	return mm.svc.ReportTaskRequest(ctx, trainer, jobID)
}

func (mm *metricsMiddleware) ReportUpdate(ctx context.Context, report orchestrator.UpdateReport) (orchestrator.UpdateResult, error) {
	defer mm.observe("report-update", time.Now())

	return mm.svc.ReportUpdate(ctx, report)
}

func (mm *metricsMiddleware) ReportValidation(ctx context.Context, report orchestrator.ValidationReport) (orchestrator.ValidationAck, error) {
	defer mm.observe("report-validation", time.Now())

	return mm.svc.ReportValidation(ctx, report)
}

func (mm *metricsMiddleware) Status(ctx context.Context) (orchestrator.Status, error) {
	defer mm.observe("status", time.Now())

	return mm.svc.Status(ctx)
}

func (mm *metricsMiddleware) Graph(ctx context.Context) (orchestrator.GraphView, error) {
	defer mm.observe("graph", time.Now())

	return mm.svc.Graph(ctx)
}

func (mm *metricsMiddleware) StartSimulation(ctx context.Context) (orchestrator.SimulationState, error) {
	defer mm.observe("start-simulation", time.Now())

	return mm.svc.StartSimulation(ctx)
}

func (mm *metricsMiddleware) StopSimulation(ctx context.Context) (orchestrator.SimulationState, error) {
	defer mm.observe("stop-simulation", time.Now())

	return mm.svc.StopSimulation(ctx)
}

func (mm *metricsMiddleware) StepSimulation(ctx context.Context) (orchestrator.StepResult, error) {
	defer mm.observe("step-simulation", time.Now())

	return mm.svc.StepSimulation(ctx)
}

func (mm *metricsMiddleware) Reset(ctx context.Context) error {
	defer mm.observe("reset", time.Now())

	return mm.svc.Reset(ctx)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer mm.observe("subscribe", time.Now())

	return mm.svc.Subscribe(ctx)
}

func (mm *metricsMiddleware) Shutdown(ctx context.Context) error {
	return mm.svc.Shutdown(ctx)
}
