package orchestrator_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/6amape9I/parallel--funetun/orchestrator/mocks"
	"github.com/6amape9I/parallel--funetun/pkg/chain"
	"github.com/6amape9I/parallel--funetun/pkg/graph"
	"github.com/6amape9I/parallel--funetun/pkg/mqtt"
	"github.com/6amape9I/parallel--funetun/pkg/roster"
	"github.com/6amape9I/parallel--funetun/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	contractAddress = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	trainerAddress  = "0xa0Ee7A142d267C1f36714E4a8F75612F20a79720"
	validatorAddr   = "0xBcd4042DE499D14e55001CcbB24a551F3b954096"
)

// fastTiming removes the settling delays and keeps the loop from running a
// second round on its own.
func fastTiming() orchestrator.Timing {
	return orchestrator.Timing{
		Interval:     time.Hour,
		MinInterval:  time.Millisecond,
		ErrorBackoff: time.Millisecond,
	}
}

type serviceOpts struct {
	chain  chain.Client
	roster *roster.Roster
	timing *orchestrator.Timing
	pubsub mqtt.PubSub
	seed   uint64
}

func newService(t *testing.T, opts serviceOpts) orchestrator.Service {
	t.Helper()

	cfg := orchestrator.Config{
		ProviderURL:     "http://127.0.0.1:8545",
		ContractAddress: contractAddress,
		TotalEpochs:     100,
		Roster:          roster.Default(),
		Timing:          fastTiming(),
		Seed:            opts.seed,
		DomainID:        "domain",
		ChannelID:       "channel",
	}
	if opts.roster != nil {
		cfg.Roster = *opts.roster
	}
	if opts.timing != nil {
		cfg.Timing = *opts.timing
	}
	c := opts.chain
	if c == nil {
		c = chain.NewUnavailable()
	}

	svc := orchestrator.NewService(cfg, c, storage.NewInMemoryStorage(), opts.pubsub, slog.Default())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})

	return svc
}

func edgeCount(t *testing.T, view orchestrator.GraphView, source, target, label string) uint64 {
	t.Helper()

	snap := graph.Snapshot{Nodes: view.Nodes, Edges: view.Edges}
	e, ok := snap.Edge(graph.EdgeKey{Source: source, Target: target, Label: label})
	if !ok {
		return 0
	}

	return e.Count
}

func TestFreshStepScenario(t *testing.T) {
	t.Parallel()

	svc := newService(t, serviceOpts{})
	ctx := context.Background()

	res, err := svc.StepSimulation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, uint64(1), res.JobState.CurrentEpoch)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	snap := graph.Snapshot{Nodes: view.Nodes, Edges: view.Edges}

	_, ok := snap.Node(graph.OrchestratorID)
	assert.True(t, ok)
	contract, ok := snap.Node(graph.ContractID)
	assert.True(t, ok)
	assert.Equal(t, "JobManager 0x5fbd...0aa3", contract.Label)

	trainers := snap.NodesOfType(graph.Trainer)
	validators := snap.NodesOfType(graph.Validator)
	assert.GreaterOrEqual(t, len(trainers), 2)
	assert.LessOrEqual(t, len(trainers), 4)
	assert.GreaterOrEqual(t, len(validators), 1)
	assert.LessOrEqual(t, len(validators), 2)
	assert.Len(t, res.Round.Trainers, len(trainers))
	assert.Len(t, res.Round.Validators, len(validators))

	assert.Equal(t, uint64(1), edgeCount(t, view, graph.OrchestratorID, graph.ContractID, graph.SubmitAggregated))
	assert.Equal(t, len(view.Nodes), res.Nodes)
	assert.Equal(t, len(view.Edges), res.Edges)

	for _, n := range append(trainers, validators...) {
		assert.Equal(t, graph.StatusIdle, n.Status, n.ID)
	}
}

func TestStepCounters(t *testing.T) {
	t.Parallel()

	const rounds = 12

	svc := newService(t, serviceOpts{seed: 99})
	ctx := context.Background()

	var trainers, validators, completed uint64
	for range rounds {
		res, err := svc.StepSimulation(ctx)
		require.NoError(t, err)
		trainers += uint64(len(res.Round.Trainers))
		validators += uint64(len(res.Round.Validators))
		if res.Round.EpochComplete {
			completed++
		}
	}

	view, err := svc.Graph(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(rounds), view.JobState.CurrentEpoch)
	assert.Equal(t, uint64(100), view.JobState.TotalEpochs)
	assert.Equal(t, trainers, view.JobState.UpdatesSubmitted)
	assert.Equal(t, validators, view.JobState.ValidationsCompleted)
	assert.Equal(t, uint64(rounds), view.JobState.AggregationsDone)
	assert.Equal(t, uint64(rounds), edgeCount(t, view, graph.OrchestratorID, graph.ContractID, graph.SubmitAggregated))
	assert.Equal(t, completed, edgeCount(t, view, graph.ContractID, graph.OrchestratorID, graph.EpochComplete))

	var requests, assigns, submits uint64
	for _, n := range (graph.Snapshot{Nodes: view.Nodes}).NodesOfType(graph.Trainer) {
		requests += edgeCount(t, view, n.ID, graph.OrchestratorID, graph.RequestTask)
		assigns += edgeCount(t, view, graph.OrchestratorID, n.ID, graph.AssignTask)
		submits += edgeCount(t, view, n.ID, graph.OrchestratorID, graph.SubmitUpdate)
	}
	assert.Equal(t, trainers, requests)
	assert.Equal(t, trainers, assigns)
	assert.Equal(t, trainers, submits)
}

func TestStepSameSeedSameRounds(t *testing.T) {
	t.Parallel()

	a := newService(t, serviceOpts{seed: 7})
	b := newService(t, serviceOpts{seed: 7})
	ctx := context.Background()

	for range 5 {
		ra, err := a.StepSimulation(ctx)
		require.NoError(t, err)
		rb, err := b.StepSimulation(ctx)
		require.NoError(t, err)

		assert.Equal(t, ra.Round.Trainers, rb.Round.Trainers)
		assert.Equal(t, ra.Round.Validators, rb.Round.Validators)
		assert.Equal(t, ra.Round.EpochComplete, rb.Round.EpochComplete)
	}
}

func TestRoundPhaseOrder(t *testing.T) {
	t.Parallel()

	timing := fastTiming()
	timing.AfterRequest = 5 * time.Millisecond
	timing.AfterAssign = 5 * time.Millisecond
	timing.AfterSubmit = 5 * time.Millisecond
	timing.AfterValidate = 5 * time.Millisecond

	svc := newService(t, serviceOpts{timing: &timing})
	ctx := context.Background()

	res, err := svc.StepSimulation(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, res.Round.Trainers)
	require.NotEmpty(t, res.Round.Validators)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	snap := graph.Snapshot{Nodes: view.Nodes, Edges: view.Edges}

	trainer := graph.TrainerID(res.Round.Trainers[0])
	validator := graph.ValidatorID(res.Round.Validators[0])
	keys := []graph.EdgeKey{
		{Source: trainer, Target: graph.OrchestratorID, Label: graph.RequestTask},
		{Source: graph.OrchestratorID, Target: trainer, Label: graph.AssignTask},
		{Source: trainer, Target: graph.OrchestratorID, Label: graph.SubmitUpdate},
		{Source: validator, Target: graph.OrchestratorID, Label: graph.ValidateUpdate},
		{Source: graph.OrchestratorID, Target: graph.ContractID, Label: graph.SubmitAggregated},
	}

	var prev time.Time
	for _, k := range keys {
		e, ok := snap.Edge(k)
		require.True(t, ok, k.String())
		assert.True(t, e.LastSeen.After(prev), "%s recorded out of order", k.String())
		prev = e.LastSeen
	}
}

func TestRoundInvalidParticipant(t *testing.T) {
	t.Parallel()

	bad := roster.Roster{
		Trainers: []roster.Participant{
			{Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Name: "Trainer-Alpha"},
			{Address: "not-an-address", Name: "Trainer-Broken"},
		},
		Validators: roster.Default().Validators,
	}
	svc := newService(t, serviceOpts{roster: &bad})
	ctx := context.Background()

	_, err := svc.StepSimulation(ctx)
	assert.ErrorIs(t, err, orchestrator.ErrInvalidParticipant)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.JobState.CurrentEpoch)
	assert.Zero(t, view.JobState.AggregationsDone)
}

func TestRoundSmallPools(t *testing.T) {
	t.Parallel()

	small := roster.Roster{
		Trainers:   roster.Default().Trainers[:1],
		Validators: nil,
	}
	svc := newService(t, serviceOpts{roster: &small})

	res, err := svc.StepSimulation(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Round.Trainers, 1)
	assert.Empty(t, res.Round.Validators)
	assert.Equal(t, uint64(1), res.JobState.UpdatesSubmitted)
	assert.Equal(t, uint64(1), res.JobState.AggregationsDone)
}

func TestReset(t *testing.T) {
	t.Parallel()

	svc := newService(t, serviceOpts{})
	ctx := context.Background()

	for range 3 {
		_, err := svc.StepSimulation(ctx)
		require.NoError(t, err)
	}
	_, err := svc.ReportTaskRequest(ctx, trainerAddress, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))
	first, err := svc.Graph(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))
	second, err := svc.Graph(ctx)
	require.NoError(t, err)

	for _, view := range []orchestrator.GraphView{first, second} {
		require.Len(t, view.Nodes, 2)
		assert.Equal(t, graph.OrchestratorID, view.Nodes[0].ID)
		assert.Equal(t, graph.ContractID, view.Nodes[1].ID)
		assert.Empty(t, view.Edges)
		assert.Equal(t, orchestrator.JobState{TotalEpochs: 100}, view.JobState)
	}
	assert.Equal(t, first.Nodes[0].Label, second.Nodes[0].Label)
	assert.Equal(t, first.Nodes[1].Label, second.Nodes[1].Label)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status.PendingTasks)
}

func TestResetDuringRound(t *testing.T) {
	t.Parallel()

	timing := fastTiming()
	timing.AfterAssign = 100 * time.Millisecond
	svc := newService(t, serviceOpts{timing: &timing})
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() {
		_, err := svc.StepSimulation(ctx)
		errs <- err
	}()
	require.Eventually(t, func() bool {
		view, err := svc.Graph(ctx)
		require.NoError(t, err)

		return view.JobState.CurrentEpoch == 1
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, svc.Reset(ctx))
	require.NoError(t, <-errs)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Nodes, 2)
	assert.Empty(t, view.Edges)
	assert.Equal(t, orchestrator.JobState{TotalEpochs: 100}, view.JobState)
}

func TestReportTaskRequest(t *testing.T) {
	t.Parallel()

	svc := newService(t, serviceOpts{})
	ctx := context.Background()

	task, err := svc.ReportTaskRequest(ctx, trainerAddress, 42)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Task{Steps: 10, ShardID: 0, JobID: 42}, task)

	_, err = svc.ReportTaskRequest(ctx, trainerAddress, 43)
	require.NoError(t, err)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	id := graph.TrainerID(trainerAddress)
	node, ok := graph.Snapshot{Nodes: view.Nodes}.Node(id)
	require.True(t, ok)
	assert.Equal(t, "Trainer 0xa0Ee...9720", node.Label)
	assert.Equal(t, uint64(2), edgeCount(t, view, id, graph.OrchestratorID, graph.RequestTask))
	assert.Equal(t, uint64(2), edgeCount(t, view, graph.OrchestratorID, id, graph.AssignTask))

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status.PendingTasks)
}

func TestReportUpdate(t *testing.T) {
	t.Parallel()

	tx := chain.Transaction{To: contractAddress, Gas: chain.SubmitUpdateGas, Nonce: 3, Data: "0xabcd"}

	cases := []struct {
		name   string
		txErr  error
		status orchestrator.UpdateStatus
		reason string
		tx     *chain.Transaction
	}{
		{name: "contract not ready", txErr: chain.ErrNotReady, status: orchestrator.UpdatePending, reason: "contract_not_ready"},
		{name: "prepared", status: orchestrator.UpdatePrepared, tx: &tx},
		{name: "chain error", txErr: errors.New("nonce too low"), status: orchestrator.UpdateError, reason: "nonce too low"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := mocks.NewClient(t)
			ret := chain.Transaction{}
			if tc.tx != nil {
				ret = *tc.tx
			}
			c.On("BuildSubmitUpdate", mock.Anything, uint64(5), "cafebabe", trainerAddress).Return(ret, tc.txErr).Once()

			svc := newService(t, serviceOpts{chain: c})
			ctx := context.Background()

			res, err := svc.ReportUpdate(ctx, orchestrator.UpdateReport{
				Trainer:    trainerAddress,
				JobID:      5,
				UpdateHash: "cafebabe",
			})
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, tc.tx, res.Transaction)

			view, err := svc.Graph(ctx)
			require.NoError(t, err)
			id := graph.TrainerID(trainerAddress)
			assert.Equal(t, uint64(1), edgeCount(t, view, id, graph.OrchestratorID, graph.SubmitUpdate))
			assert.Equal(t, uint64(1), edgeCount(t, view, graph.OrchestratorID, graph.ContractID, graph.SubmitUpdate))
			assert.Zero(t, view.JobState.UpdatesSubmitted)
		})
	}
}

func TestReportUpdateClearsPendingTask(t *testing.T) {
	t.Parallel()

	svc := newService(t, serviceOpts{})
	ctx := context.Background()

	pending := func() uint64 {
		status, err := svc.Status(ctx)
		require.NoError(t, err)

		return status.PendingTasks
	}

	_, err := svc.ReportTaskRequest(ctx, trainerAddress, 9)
	require.NoError(t, err)
	require.Equal(t, uint64(1), pending())

	_, err = svc.ReportUpdate(ctx, orchestrator.UpdateReport{Trainer: trainerAddress, JobID: 8, UpdateHash: "ab"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pending())

	res, err := svc.ReportUpdate(ctx, orchestrator.UpdateReport{Trainer: trainerAddress, JobID: 9, UpdateHash: "ab"})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.UpdatePending, res.Status)
	assert.Zero(t, pending())
}

func TestReportValidation(t *testing.T) {
	t.Parallel()

	svc := newService(t, serviceOpts{})
	ctx := context.Background()

	ack, err := svc.ReportValidation(ctx, orchestrator.ValidationReport{
		Validator: validatorAddr,
		JobID:     2,
		Index:     1,
		Valid:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.ValidationAck{Status: "received", JobID: 2, Index: 1, Valid: true}, ack)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	id := graph.ValidatorID(validatorAddr)
	node, ok := graph.Snapshot{Nodes: view.Nodes}.Node(id)
	require.True(t, ok)
	assert.Equal(t, graph.Validator, node.Type)
	assert.Equal(t, uint64(1), edgeCount(t, view, id, graph.OrchestratorID, graph.ValidateUpdate))
	assert.Equal(t, uint64(1), edgeCount(t, view, graph.OrchestratorID, graph.ContractID, graph.ValidateUpdate))
}

func TestStatus(t *testing.T) {
	t.Parallel()

	c := mocks.NewClient(t)
	c.On("IsConnected", mock.Anything).Return(true)
	c.On("ContractReady", mock.Anything).Return(false)

	svc := newService(t, serviceOpts{chain: c})
	ctx := context.Background()

	_, err := svc.StepSimulation(ctx)
	require.NoError(t, err)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "running", status.Orchestrator)
	assert.True(t, status.Web3Connected)
	assert.False(t, status.ContractReady)
	assert.Equal(t, contractAddress, status.ContractAddress)
	assert.False(t, status.Simulation.Running)
	assert.Equal(t, uint64(1), status.Simulation.JobState.CurrentEpoch)

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(view.Nodes), status.Graph.NodesCount)
	assert.Equal(t, len(view.Edges), status.Graph.EdgesCount)
}

func TestConcurrentReportsAndRounds(t *testing.T) {
	t.Parallel()

	const reports = 50

	svc := newService(t, serviceOpts{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ReportTaskRequest(ctx, trainerAddress, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 5 {
			_, err := svc.StepSimulation(ctx)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	view, err := svc.Graph(ctx)
	require.NoError(t, err)
	id := graph.TrainerID(trainerAddress)
	assert.Equal(t, uint64(reports), edgeCount(t, view, id, graph.OrchestratorID, graph.RequestTask))
	assert.Equal(t, uint64(5), view.JobState.CurrentEpoch)
}
