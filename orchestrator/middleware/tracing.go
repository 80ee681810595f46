package middleware

import (
	"context"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ orchestrator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    orchestrator.Service
}

func Tracing(tracer trace.Tracer, svc orchestrator.Service) orchestrator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) ReportTaskRequest(ctx context.Context, trainer string, jobID uint64) (orchestrator.Task, error) {
	ctx, span := tm.tracer.Start(ctx, "report-task-request", trace.WithAttributes(
		attribute.String("trainer", trainer),
		attribute.Int64("job_id", int64(jobID)),
	))
	defer span.End()

	return tm.svc.ReportTaskRequest(ctx, trainer, jobID)
}

func (tm *tracing) ReportUpdate(ctx context.Context, report orchestrator.UpdateReport) (orchestrator.UpdateResult, error) {
	ctx, span := tm.tracer.Start(ctx, "report-update", trace.WithAttributes(
		attribute.String("trainer", report.Trainer),
		attribute.Int64("job_id", int64(report.JobID)),
		attribute.String("update_hash", report.UpdateHash),
	))
	defer span.End()

	res, err := tm.svc.ReportUpdate(ctx, report)
	span.SetAttributes(attribute.String("status", string(res.Status)))

	return res, err
}

func (tm *tracing) ReportValidation(ctx context.Context, report orchestrator.ValidationReport) (orchestrator.ValidationAck, error) {
	ctx, span := tm.tracer.Start(ctx, "report-validation", trace.WithAttributes(
		attribute.String("validator", report.Validator),
		attribute.Int64("job_id", int64(report.JobID)),
		attribute.Int64("index", int64(report.Index)),
		attribute.Bool("valid", report.Valid),
	))
	defer span.End()

	return tm.svc.ReportValidation(ctx, report)
}

func (tm *tracing) Status(ctx context.Context) (orchestrator.Status, error) {
	ctx, span := tm.tracer.Start(ctx, "status")
	defer span.End()

	return tm.svc.Status(ctx)
}

func (tm *tracing) Graph(ctx context.Context) (orchestrator.GraphView, error) {
	ctx, span := tm.tracer.Start(ctx, "graph")
	defer span.End()

	return tm.svc.Graph(ctx)
}

func (tm *tracing) StartSimulation(ctx context.Context) (orchestrator.SimulationState, error) {
	ctx, span := tm.tracer.Start(ctx, "start-simulation")
	defer span.End()

	return tm.svc.StartSimulation(ctx)
}

func (tm *tracing) StopSimulation(ctx context.Context) (orchestrator.SimulationState, error) {
	ctx, span := tm.tracer.Start(ctx, "stop-simulation")
	defer span.End()

	return tm.svc.StopSimulation(ctx)
}

func (tm *tracing) StepSimulation(ctx context.Context) (orchestrator.StepResult, error) {
	ctx, span := tm.tracer.Start(ctx, "step-simulation")
	defer span.End()

	res, err := tm.svc.StepSimulation(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return res, err
	}
	span.SetAttributes(
		attribute.Int64("epoch", int64(res.Round.Epoch)),
		attribute.Int("trainers", len(res.Round.Trainers)),
		attribute.Int("validators", len(res.Round.Validators)),
	)

	return res, nil
}

func (tm *tracing) Reset(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "reset")
	defer span.End()

	return tm.svc.Reset(ctx)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}

func (tm *tracing) Shutdown(ctx context.Context) error {
	return tm.svc.Shutdown(ctx)
}
