package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	simStarted        = "started"
	simAlreadyRunning = "already_running"
	simStopped        = "stopped"
	simAlreadyStopped = "already_stopped"
	stepOK            = "ok"
)

func (svc *service) StartSimulation(_ context.Context) (SimulationState, error) {
	svc.simMu.Lock()
	defer svc.simMu.Unlock()

	if svc.running {
		return SimulationState{Status: simAlreadyRunning, Running: true}, ErrAlreadyRunning
	}
	if err := svc.ctx.Err(); err != nil {
		return SimulationState{Status: simStopped}, err
	}

	svc.running = true
	svc.stop = make(chan struct{})
	svc.done = make(chan struct{})
	go svc.loop(svc.stop, svc.done)

	svc.logger.Info("simulation started")

	return SimulationState{Status: simStarted, Running: true}, nil
}

func (svc *service) StopSimulation(_ context.Context) (SimulationState, error) {
	svc.simMu.Lock()
	defer svc.simMu.Unlock()

	if !svc.running {
		return SimulationState{Status: simAlreadyStopped}, nil
	}

	svc.running = false
	close(svc.stop)

	svc.logger.Info("simulation stopped")

	return SimulationState{Status: simStopped}, nil
}

func (svc *service) StepSimulation(ctx context.Context) (StepResult, error) {
	if svc.isRunning() {
		return StepResult{}, ErrSimulationRunning
	}

	// The round outlives the caller; only Shutdown cuts it short.
	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	unbind := context.AfterFunc(svc.ctx, cancel)
	defer unbind()

	round, err := svc.executeRound(rctx)
	if err != nil {
		return StepResult{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	return StepResult{
		Status:   stepOK,
		JobState: svc.job,
		Nodes:    svc.graph.NodeCount(),
		Edges:    svc.graph.EdgeCount(),
		Round:    round,
	}, nil
}

func (svc *service) isRunning() bool {
	svc.simMu.Lock()
	defer svc.simMu.Unlock()

	return svc.running
}

// loop runs rounds until stop is closed or the service shuts down. Each
// loop owns its stop channel, so a loop that is still finishing its last
// round after Stop never outlives that round even if a new loop starts.
func (svc *service) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	svc.logger.Info("simulation loop started")
	defer svc.logger.Info("simulation loop stopped")

	for {
		select {
		case <-stop:
			return
		case <-svc.ctx.Done():
			return
		default:
		}

		wait := svc.nextInterval()
		if _, err := svc.executeRound(svc.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			svc.logger.Error("simulation error", slog.Any("error", err))
			wait = svc.cfg.Timing.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()

			return
		case <-svc.ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
		}
	}
}

func (svc *service) executeRound(ctx context.Context) (RoundResult, error) {
	round, err := svc.runRound(ctx)
	if err != nil {
		return round, err
	}
	svc.publishRound(ctx, round)

	return round, nil
}

// nextInterval is the base interval plus a uniform jitter, floored at
// MinInterval.
func (svc *service) nextInterval() time.Duration {
	t := svc.cfg.Timing
	wait := t.Interval

	if span := t.JitterMax - t.JitterMin; span > 0 {
		svc.mu.Lock()
		jitter := t.JitterMin + time.Duration(svc.rng.Int64N(int64(span)+1))
		svc.mu.Unlock()
		wait += jitter
	}

	return max(wait, t.MinInterval)
}
