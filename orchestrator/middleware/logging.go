package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
)

var _ orchestrator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    orchestrator.Service
}

func Logging(logger *slog.Logger, svc orchestrator.Service) orchestrator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) ReportTaskRequest(ctx context.Context, trainer string, jobID uint64) (resp orchestrator.Task, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("task",
				slog.String("trainer", trainer),
				slog.Uint64("job_id", jobID),
				slog.Int("steps", resp.Steps),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Report task request failed", args...)

			return
		}
		lm.logger.Info("Report task request completed successfully", args...)
	}(time.Now())

	return lm.svc.ReportTaskRequest(ctx, trainer, jobID)
}

func (lm *loggingMiddleware) ReportUpdate(ctx context.Context, report orchestrator.UpdateReport) (resp orchestrator.UpdateResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("update",
				slog.String("trainer", report.Trainer),
				slog.Uint64("job_id", report.JobID),
				slog.String("update_hash", report.UpdateHash),
				slog.String("status", string(resp.Status)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Report update failed", args...)

			return
		}
		lm.logger.Info("Report update completed successfully", args...)
	}(time.Now())

	return lm.svc.ReportUpdate(ctx, report)
}

func (lm *loggingMiddleware) ReportValidation(ctx context.Context, report orchestrator.ValidationReport) (resp orchestrator.ValidationAck, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("validation",
				slog.String("validator", report.Validator),
				slog.Uint64("job_id", report.JobID),
				slog.Uint64("index", report.Index),
				slog.Bool("valid", report.Valid),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Report validation failed", args...)

			return
		}
		lm.logger.Info("Report validation completed successfully", args...)
	}(time.Now())

	return lm.svc.ReportValidation(ctx, report)
}

func (lm *loggingMiddleware) Status(ctx context.Context) (resp orchestrator.Status, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get status failed", args...)

			return
		}
		lm.logger.Debug("Get status completed successfully", args...)
	}(time.Now())

	return lm.svc.Status(ctx)
}

func (lm *loggingMiddleware) Graph(ctx context.Context) (resp orchestrator.GraphView, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("graph",
				slog.Int("nodes", len(resp.Nodes)),
				slog.Int("edges", len(resp.Edges)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get graph failed", args...)

			return
		}
		lm.logger.Debug("Get graph completed successfully", args...)
	}(time.Now())

	return lm.svc.Graph(ctx)
}

func (lm *loggingMiddleware) StartSimulation(ctx context.Context) (resp orchestrator.SimulationState, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("status", resp.Status),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start simulation failed", args...)

			return
		}
		lm.logger.Info("Start simulation completed successfully", args...)
	}(time.Now())

	return lm.svc.StartSimulation(ctx)
}

func (lm *loggingMiddleware) StopSimulation(ctx context.Context) (resp orchestrator.SimulationState, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("status", resp.Status),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Stop simulation failed", args...)

			return
		}
		lm.logger.Info("Stop simulation completed successfully", args...)
	}(time.Now())

	return lm.svc.StopSimulation(ctx)
}

func (lm *loggingMiddleware) StepSimulation(ctx context.Context) (resp orchestrator.StepResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("epoch", resp.Round.Epoch),
				slog.Int("trainers", len(resp.Round.Trainers)),
				slog.Int("validators", len(resp.Round.Validators)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Step simulation failed", args...)

			return
		}
		lm.logger.Info("Step simulation completed successfully", args...)
	}(time.Now())

	return lm.svc.StepSimulation(ctx)
}

func (lm *loggingMiddleware) Reset(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Reset graph failed", args...)

			return
		}
		lm.logger.Info("Reset graph completed successfully", args...)
	}(time.Now())

	return lm.svc.Reset(ctx)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe to reports failed", args...)

			return
		}
		lm.logger.Info("Subscribe to reports completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}

func (lm *loggingMiddleware) Shutdown(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Shutdown failed", args...)

			return
		}
		lm.logger.Info("Shutdown completed successfully", args...)
	}(time.Now())

	return lm.svc.Shutdown(ctx)
}
