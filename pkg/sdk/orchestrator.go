package sdk

import (
	"encoding/json"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const (
	statusEndpoint     = "/status"
	graphEndpoint      = "/graph"
	resetEndpoint      = "/debug/graph/reset"
	simulationEndpoint = "/simulation"
	taskEndpoint       = "/get_task"
	updateEndpoint     = "/submit_update"
	updateCBOREndpoint = "/submit_update_cbor"
	validationEndpoint = "/submit_validation"
)

type JobState struct {
	CurrentEpoch         uint64 `json:"current_epoch"`
	TotalEpochs          uint64 `json:"total_epochs"`
	UpdatesSubmitted     uint64 `json:"updates_submitted"`
	ValidationsCompleted uint64 `json:"validations_completed"`
	AggregationsDone     uint64 `json:"aggregations_done"`
}

type Node struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

type Edge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Label    string    `json:"label"`
	Count    uint64    `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

type Graph struct {
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
	JobState  JobState  `json:"job_state"`
}

type Status struct {
	Orchestrator    string    `json:"orchestrator"`
	Timestamp       time.Time `json:"timestamp"`
	Web3Connected   bool      `json:"web3_connected"`
	ContractReady   bool      `json:"contract_ready"`
	ProviderURL     string    `json:"provider_url"`
	ContractAddress string    `json:"contract_address"`
	Simulation      struct {
		Enabled  bool     `json:"enabled"`
		Running  bool     `json:"running"`
		JobState JobState `json:"job_state"`
	} `json:"simulation"`
	Graph struct {
		NodesCount int `json:"nodes_count"`
		EdgesCount int `json:"edges_count"`
	} `json:"graph"`
	PendingTasks uint64 `json:"pending_tasks"`
}

type SimulationState struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

type Round struct {
	Epoch         uint64    `json:"epoch"`
	Trainers      []string  `json:"trainers"`
	Validators    []string  `json:"validators"`
	EpochComplete bool      `json:"epoch_complete"`
	FinishedAt    time.Time `json:"finished_at"`
}

type StepResult struct {
	Status   string   `json:"status"`
	JobState JobState `json:"job_state"`
	Nodes    int      `json:"nodes"`
	Edges    int      `json:"edges"`
	Round    Round    `json:"round"`
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

type Transaction struct {
	To    string `json:"to"`
	Gas   uint64 `json:"gas"`
	Nonce uint64 `json:"nonce"`
	Data  string `json:"data"`
}

type UpdateResult struct {
	Status      string       `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	Message     string       `json:"message,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
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

func (sdk *orchSDK) Status() (Status, error) {
	var s Status
	if err := sdk.get(statusEndpoint, &s); err != nil {
		return Status{}, err
	}

	return s, nil
}

func (sdk *orchSDK) Graph() (Graph, error) {
	var g Graph
	if err := sdk.get(graphEndpoint, &g); err != nil {
		return Graph{}, err
	}

	return g, nil
}

func (sdk *orchSDK) ResetGraph() error {
	return sdk.post(resetEndpoint, "", nil, nil)
}

func (sdk *orchSDK) StartSimulation() (SimulationState, error) {
	return sdk.simulation("/start")
}

func (sdk *orchSDK) StopSimulation() (SimulationState, error) {
	return sdk.simulation("/stop")
}

func (sdk *orchSDK) simulation(action string) (SimulationState, error) {
	var s SimulationState
	if err := sdk.post(simulationEndpoint+action, "", nil, &s); err != nil {
		return SimulationState{}, err
	}

	return s, nil
}

func (sdk *orchSDK) StepSimulation() (StepResult, error) {
	var r StepResult
	if err := sdk.post(simulationEndpoint+"/step", "", nil, &r); err != nil {
		return StepResult{}, err
	}

	return r, nil
}

func (sdk *orchSDK) GetTask(trainer string, jobID uint64) (Task, error) {
	data, err := json.Marshal(map[string]any{
		"trainer": trainer,
		"job_id":  jobID,
	})
	if err != nil {
		return Task{}, err
	}

	var t Task
	if err := sdk.post(taskEndpoint, CTJSON, data, &t); err != nil {
		return Task{}, err
	}

	return t, nil
}

func (sdk *orchSDK) SubmitUpdate(report UpdateReport) (UpdateResult, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return UpdateResult{}, err
	}

	var r UpdateResult
	if err := sdk.post(updateEndpoint, CTJSON, data, &r); err != nil {
		return UpdateResult{}, err
	}

	return r, nil
}

func (sdk *orchSDK) SubmitUpdateCBOR(report UpdateReport) (UpdateResult, error) {
	data, err := cbor.Marshal(report)
	if err != nil {
		return UpdateResult{}, err
	}

	var r UpdateResult
	if err := sdk.post(updateCBOREndpoint, CTCBOR, data, &r); err != nil {
		return UpdateResult{}, err
	}

	return r, nil
}

func (sdk *orchSDK) SubmitValidation(report ValidationReport) (ValidationAck, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return ValidationAck{}, err
	}

	var a ValidationAck
	if err := sdk.post(validationEndpoint, CTJSON, data, &a); err != nil {
		return ValidationAck{}, err
	}

	return a, nil
}
