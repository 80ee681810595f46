package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/6amape9I/parallel--funetun/pkg/chain"
	"github.com/6amape9I/parallel--funetun/pkg/graph"
	"github.com/6amape9I/parallel--funetun/pkg/mqtt"
	"github.com/6amape9I/parallel--funetun/pkg/roster"
	"github.com/6amape9I/parallel--funetun/pkg/storage"
)

const orchestratorRunning = "running"

type Config struct {
	ProviderURL       string
	ContractAddress   string
	TotalEpochs       uint64
	SimulationEnabled bool
	Roster            roster.Roster
	Timing            Timing
	// Seed fixes the round randomness; zero draws a random seed.
	Seed      uint64
	DomainID  string
	ChannelID string
}

type service struct {
	cfg     Config
	chain   chain.Client
	pending storage.Storage
	pubsub  mqtt.PubSub
	logger  *slog.Logger

	// ctx bounds the round loop; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards graph, job and rng.
	mu    sync.Mutex
	graph *graph.Store
	job   JobState
	rng   *rand.Rand

	// roundMu serializes rounds between the loop and Step.
	roundMu sync.Mutex

	simMu   sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewService returns the orchestrator. pubsub may be nil when MQTT is not
// configured.
func NewService(cfg Config, chainClient chain.Client, pending storage.Storage, pubsub mqtt.PubSub, logger *slog.Logger) Service {
	if cfg.TotalEpochs == 0 {
		cfg.TotalEpochs = defTotalEpochs
	}
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming()
	}
	seed1, seed2 := cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15
	if cfg.Seed == 0 {
		seed1, seed2 = rand.Uint64(), rand.Uint64()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &service{
		cfg:     cfg,
		chain:   chainClient,
		pending: pending,
		pubsub:  pubsub,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		graph:   graph.NewStore(chain.ContractLabel(cfg.ContractAddress)),
		job:     newJobState(cfg.TotalEpochs),
		rng:     rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (svc *service) ReportTaskRequest(ctx context.Context, trainer string, jobID uint64) (Task, error) {
	id := graph.TrainerID(trainer)

	svc.mu.Lock()
	svc.graph.EnsureNode(id, "Trainer "+chain.ShortAddress(trainer), graph.Trainer)
	svc.graph.RecordEdge(id, graph.OrchestratorID, graph.RequestTask)
	svc.graph.RecordEdge(graph.OrchestratorID, id, graph.AssignTask)
	svc.mu.Unlock()

	t := Task{
		Steps:   defTaskSteps,
		ShardID: defShardID,
		JobID:   jobID,
	}
	if err := svc.pending.Put(ctx, trainer, t); err != nil {
		return Task{}, err
	}

	return t, nil
}

func (svc *service) ReportUpdate(ctx context.Context, report UpdateReport) (UpdateResult, error) {
	id := graph.TrainerID(report.Trainer)

	svc.mu.Lock()
	svc.graph.EnsureNode(id, "Trainer "+chain.ShortAddress(report.Trainer), graph.Trainer)
	svc.graph.RecordEdge(id, graph.OrchestratorID, graph.SubmitUpdate)
	svc.graph.RecordEdge(graph.OrchestratorID, graph.ContractID, graph.SubmitUpdate)
	svc.mu.Unlock()

	tx, err := svc.chain.BuildSubmitUpdate(ctx, report.JobID, report.UpdateHash, report.Trainer)
	switch {
	case errors.Is(err, chain.ErrNotReady):
		svc.completeTask(ctx, report)

		return UpdateResult{
			Status:  UpdatePending,
			Reason:  "contract_not_ready",
			Message: "Update accepted, will be submitted to contract later",
		}, nil
	case err != nil:
		svc.logger.Error("contract error",
			slog.String("trainer", report.Trainer),
			slog.Uint64("job_id", report.JobID),
			slog.Any("error", err),
		)

		return UpdateResult{
			Status: UpdateError,
			Reason: err.Error(),
		}, nil
	}

	svc.completeTask(ctx, report)

	return UpdateResult{
		Status:      UpdatePrepared,
		Transaction: &tx,
		Message:     "Transaction prepared, signature required",
	}, nil
}

// completeTask drops the trainer's pending task once an update for its job
// is accepted.
func (svc *service) completeTask(ctx context.Context, report UpdateReport) {
	v, err := svc.pending.Get(ctx, report.Trainer)
	if err != nil {
		return
	}
	if t, ok := v.(Task); !ok || t.JobID != report.JobID {
		return
	}
	if err := svc.pending.Delete(ctx, report.Trainer); err != nil {
		svc.logger.Warn("failed to clear pending task", slog.String("trainer", report.Trainer), slog.Any("error", err))
	}
}

func (svc *service) ReportValidation(_ context.Context, report ValidationReport) (ValidationAck, error) {
	id := graph.ValidatorID(report.Validator)

	svc.mu.Lock()
	svc.graph.EnsureNode(id, "Validator "+chain.ShortAddress(report.Validator), graph.Validator)
	svc.graph.RecordEdge(id, graph.OrchestratorID, graph.ValidateUpdate)
	svc.graph.RecordEdge(graph.OrchestratorID, graph.ContractID, graph.ValidateUpdate)
	svc.mu.Unlock()

	return ValidationAck{
		Status: "received",
		JobID:  report.JobID,
		Index:  report.Index,
		Valid:  report.Valid,
	}, nil
}

func (svc *service) Status(ctx context.Context) (Status, error) {
	web3Connected := svc.chain.IsConnected(ctx)
	contractReady := web3Connected && svc.chain.ContractReady(ctx)

	_, pending, err := svc.pending.List(ctx, 0, 0)
	if err != nil {
		return Status{}, err
	}

	svc.mu.Lock()
	job := svc.job
	graphStatus := GraphStatus{
		NodesCount: svc.graph.NodeCount(),
		EdgesCount: svc.graph.EdgeCount(),
	}
	svc.mu.Unlock()

	return Status{
		Orchestrator:    orchestratorRunning,
		Timestamp:       time.Now().UTC(),
		Web3Connected:   web3Connected,
		ContractReady:   contractReady,
		ProviderURL:     svc.cfg.ProviderURL,
		ContractAddress: svc.cfg.ContractAddress,
		Simulation: SimulationStatus{
			Enabled:  svc.cfg.SimulationEnabled,
			Running:  svc.isRunning(),
			JobState: job,
		},
		Graph:        graphStatus,
		PendingTasks: pending,
	}, nil
}

func (svc *service) Graph(_ context.Context) (GraphView, error) {
	svc.mu.Lock()
	snap := svc.graph.Snapshot()
	job := svc.job
	svc.mu.Unlock()

	return GraphView{
		Nodes:     snap.Nodes,
		Edges:     snap.Edges,
		UpdatedAt: time.Now().UTC(),
		JobState:  job,
	}, nil
}

// Reset waits for an in-flight round so the graph never keeps edges to
// nodes it dropped.
func (svc *service) Reset(_ context.Context) error {
	svc.roundMu.Lock()
	defer svc.roundMu.Unlock()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.graph.Reset()
	svc.job = newJobState(svc.cfg.TotalEpochs)

	return nil
}

func (svc *service) Shutdown(ctx context.Context) error {
	if _, err := svc.StopSimulation(ctx); err != nil {
		return err
	}
	svc.cancel()

	svc.simMu.Lock()
	done := svc.done
	svc.simMu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return svc.unsubscribe(ctx)
}
