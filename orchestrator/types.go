package orchestrator

import (
	"time"

	"github.com/6amape9I/parallel--funetun/pkg/chain"
	"github.com/6amape9I/parallel--funetun/pkg/graph"
)

const (
	defTotalEpochs = 100
	defTaskSteps   = 10
	defShardID     = 0
)

type JobState struct {
	CurrentEpoch         uint64 `json:"current_epoch"`
	TotalEpochs          uint64 `json:"total_epochs"`
	UpdatesSubmitted     uint64 `json:"updates_submitted"`
	ValidationsCompleted uint64 `json:"validations_completed"`
	AggregationsDone     uint64 `json:"aggregations_done"`
}

func newJobState(totalEpochs uint64) JobState {
	return JobState{TotalEpochs: totalEpochs}
}

type Task struct {
	Steps   int    `json:"steps"`
	ShardID int    `json:"shard_id"`
	JobID   uint64 `json:"job_id"`
}

type UpdateReport struct {
	Trainer    string `json:"trainer"     cbor:"trainer"`
	JobID      uint64 `json:"job_id"      cbor:"job_id"`
	UpdateHash string `json:"update_hash" cbor:"update_hash"`
	Index      uint64 `json:"index"       cbor:"index"`
}

type UpdateStatus string

const (
	UpdatePending  UpdateStatus = "pending"
	UpdatePrepared UpdateStatus = "prepared"
	UpdateError    UpdateStatus = "error"
)

type UpdateResult struct {
	Status      UpdateStatus       `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	Message     string             `json:"message,omitempty"`
	Transaction *chain.Transaction `json:"transaction,omitempty"`
}

type ValidationReport struct {
	Validator string `json:"validator"`
	JobID     uint64 `json:"job_id"`
	Index     uint64 `json:"index"`
	Valid     bool   `json:"valid"`
}

type ValidationAck struct {
	Status string `json:"status"`
	JobID  uint64 `json:"job_id"`
	Index  uint64 `json:"index"`
	Valid  bool   `json:"valid"`
}

type SimulationState struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

// RoundResult summarizes one completed round.
type RoundResult struct {
	Epoch         uint64    `json:"epoch"`
	Trainers      []string  `json:"trainers"`
	Validators    []string  `json:"validators"`
	EpochComplete bool      `json:"epoch_complete"`
	FinishedAt    time.Time `json:"finished_at"`
}

type StepResult struct {
	Status   string      `json:"status"`
	JobState JobState    `json:"job_state"`
	Nodes    int         `json:"nodes"`
	Edges    int         `json:"edges"`
	Round    RoundResult `json:"round"`
}

type GraphView struct {
	Nodes     []graph.Node `json:"nodes"`
	Edges     []graph.Edge `json:"edges"`
	UpdatedAt time.Time    `json:"updated_at"`
	JobState  JobState     `json:"job_state"`
}

type SimulationStatus struct {
	Enabled  bool     `json:"enabled"`
	Running  bool     `json:"running"`
	JobState JobState `json:"job_state"`
}

type GraphStatus struct {
	NodesCount int `json:"nodes_count"`
	EdgesCount int `json:"edges_count"`
}

type Status struct {
	Orchestrator    string           `json:"orchestrator"`
	Timestamp       time.Time        `json:"timestamp"`
	Web3Connected   bool             `json:"web3_connected"`
	ContractReady   bool             `json:"contract_ready"`
	ProviderURL     string           `json:"provider_url"`
	ContractAddress string           `json:"contract_address"`
	Simulation      SimulationStatus `json:"simulation"`
	Graph           GraphStatus      `json:"graph"`
	PendingTasks    uint64           `json:"pending_tasks"`
}
