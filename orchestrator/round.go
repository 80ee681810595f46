package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/6amape9I/parallel--funetun/pkg/chain"
	"github.com/6amape9I/parallel--funetun/pkg/graph"
	"github.com/6amape9I/parallel--funetun/pkg/roster"
)

const (
	minTrainers   = 2
	maxTrainers   = 4
	minValidators = 1
	maxValidators = 2

	// Share of rounds in which the contract's epoch confirmation is
	// observed before the round ends.
	completionProbability = 0.7
)

// Timing holds the simulated settling delays between round phases and the
// cadence of the round loop.
type Timing struct {
	AfterRequest  time.Duration
	AfterAssign   time.Duration
	AfterSubmit   time.Duration
	AfterValidate time.Duration

	Interval     time.Duration
	JitterMin    time.Duration
	JitterMax    time.Duration
	MinInterval  time.Duration
	ErrorBackoff time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		AfterRequest:  300 * time.Millisecond,
		AfterAssign:   500 * time.Millisecond,
		AfterSubmit:   300 * time.Millisecond,
		AfterValidate: 300 * time.Millisecond,
		Interval:      3 * time.Second,
		JitterMin:     -time.Second,
		JitterMax:     2 * time.Second,
		MinInterval:   time.Second,
		ErrorBackoff:  5 * time.Second,
	}
}

// runRound executes one epoch. Each phase mutates the graph under svc.mu
// and then waits out its settling delay without holding the lock. A failed
// round keeps whatever counters it already advanced.
func (svc *service) runRound(ctx context.Context) (RoundResult, error) {
	svc.roundMu.Lock()
	defer svc.roundMu.Unlock()

	var (
		res        RoundResult
		trainers   []roster.Participant
		validators []roster.Participant
	)

	err := svc.phase(ctx, svc.cfg.Timing.AfterRequest, func() error {
		svc.job.CurrentEpoch++
		res.Epoch = svc.job.CurrentEpoch

		trainers = roster.Sample(svc.rng, svc.cfg.Roster.Trainers, minTrainers, maxTrainers)
		for _, t := range trainers {
			if err := checkParticipant(t); err != nil {
				return err
			}
			id := graph.TrainerID(t.Address)
			svc.graph.EnsureNode(id, t.Name, graph.Trainer)
			svc.graph.RecordEdge(id, graph.OrchestratorID, graph.RequestTask)
			svc.graph.UpdateStatus(id, graph.StatusRequesting)
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	err = svc.phase(ctx, svc.cfg.Timing.AfterAssign, func() error {
		for _, t := range trainers {
			id := graph.TrainerID(t.Address)
			svc.graph.RecordEdge(graph.OrchestratorID, id, graph.AssignTask)
			svc.graph.UpdateStatus(id, graph.StatusTraining)
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	err = svc.phase(ctx, svc.cfg.Timing.AfterSubmit, func() error {
		for _, t := range trainers {
			id := graph.TrainerID(t.Address)
			svc.graph.RecordEdge(id, graph.OrchestratorID, graph.SubmitUpdate)
			svc.graph.UpdateStatus(id, graph.StatusSubmitted)
			svc.job.UpdatesSubmitted++
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	err = svc.phase(ctx, svc.cfg.Timing.AfterValidate, func() error {
		validators = roster.Sample(svc.rng, svc.cfg.Roster.Validators, minValidators, maxValidators)
		for _, v := range validators {
			if err := checkParticipant(v); err != nil {
				return err
			}
			id := graph.ValidatorID(v.Address)
			svc.graph.EnsureNode(id, v.Name, graph.Validator)
			svc.graph.RecordEdge(id, graph.OrchestratorID, graph.ValidateUpdate)
			svc.graph.UpdateStatus(id, graph.StatusValidating)
			svc.job.ValidationsCompleted++
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	err = svc.phase(ctx, 0, func() error {
		svc.graph.RecordEdge(graph.OrchestratorID, graph.ContractID, graph.SubmitAggregated)
		svc.job.AggregationsDone++

		if svc.rng.Float64() < completionProbability {
			svc.graph.RecordEdge(graph.ContractID, graph.OrchestratorID, graph.EpochComplete)
			res.EpochComplete = true
		}

		for _, t := range trainers {
			svc.graph.UpdateStatus(graph.TrainerID(t.Address), graph.StatusIdle)
		}
		for _, v := range validators {
			svc.graph.UpdateStatus(graph.ValidatorID(v.Address), graph.StatusIdle)
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	res.Trainers = addresses(trainers)
	res.Validators = addresses(validators)
	res.FinishedAt = time.Now().UTC()

	svc.logger.Info("simulation epoch complete",
		slog.Uint64("epoch", res.Epoch),
		slog.Int("trainers", len(trainers)),
		slog.Int("validators", len(validators)),
		slog.Bool("epoch_complete", res.EpochComplete),
	)

	return res, nil
}

// phase applies fn under svc.mu, then sleeps for delay. The sleep ends
// early only when ctx is done.
func (svc *service) phase(ctx context.Context, delay time.Duration, fn func() error) error {
	svc.mu.Lock()
	err := fn()
	svc.mu.Unlock()
	if err != nil {
		return err
	}

	return sleep(ctx, delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func checkParticipant(p roster.Participant) error {
	if !chain.IsAddress(p.Address) {
		return fmt.Errorf("%w: %q has malformed address %q", ErrInvalidParticipant, p.Name, p.Address)
	}

	return nil
}

func addresses(ps []roster.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Address
	}

	return out
}
