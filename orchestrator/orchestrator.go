package orchestrator

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/6amape9I/parallel--funetun/pkg/errors"
)

var (
	ErrAlreadyRunning     = errors.New("simulation already running")
	ErrSimulationRunning  = fmt.Errorf("%w: stop auto-simulation first", pkgerrors.ErrConflict)
	ErrInvalidParticipant = errors.New("invalid participant")
)

type Service interface {
	// ReportTaskRequest records a trainer asking for work and returns the
	// task it is assigned.
	ReportTaskRequest(ctx context.Context, trainer string, jobID uint64) (Task, error)

	// ReportUpdate records a trainer's update and prepares the on-chain
	// submission when the contract is reachable. Chain failures are part of
	// the result, not the error.
	ReportUpdate(ctx context.Context, report UpdateReport) (UpdateResult, error)

	// ReportValidation records a validator's verdict on an update.
	ReportValidation(ctx context.Context, report ValidationReport) (ValidationAck, error)

	Status(ctx context.Context) (Status, error)
	Graph(ctx context.Context) (GraphView, error)

	// StartSimulation starts the autonomous round loop. It returns
	// ErrAlreadyRunning when a loop is already active.
	StartSimulation(ctx context.Context) (SimulationState, error)

	// StopSimulation asks the round loop to exit once its current round
	// and sleep finish. It is idempotent.
	StopSimulation(ctx context.Context) (SimulationState, error)

	// StepSimulation runs exactly one round synchronously. It returns
	// ErrSimulationRunning while the round loop is active.
	StepSimulation(ctx context.Context) (StepResult, error)

	// Reset clears the interaction graph and the job counters.
	Reset(ctx context.Context) error

	Subscribe(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
