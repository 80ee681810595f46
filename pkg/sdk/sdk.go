package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	CTJSON string = "application/json"
	CTCBOR string = "application/cbor"

	defTimeout = 30 * time.Second
)

var ErrUnexpectedStatus = errors.New("unexpected response code")

type SDK interface {
	// Status returns the orchestrator status.
	//
	// example:
	//  status, _ := sdk.Status()
	//  fmt.Println(status.Simulation.JobState.CurrentEpoch)
	Status() (Status, error)

	// Graph returns the interaction graph snapshot.
	//
	// example:
	//  graph, _ := sdk.Graph()
	//  fmt.Println(len(graph.Nodes), len(graph.Edges))
	Graph() (Graph, error)

	// ResetGraph clears the graph and the job counters.
	ResetGraph() error

	// StartSimulation starts the autonomous round loop.
	//
	// example:
	//  state, _ := sdk.StartSimulation()
	//  fmt.Println(state.Status) // "started" or "already_running"
	StartSimulation() (SimulationState, error)

	// StopSimulation stops the autonomous round loop.
	StopSimulation() (SimulationState, error)

	// StepSimulation runs one round. It fails while the loop is running.
	StepSimulation() (StepResult, error)

	// GetTask reports a task request for a trainer.
	//
	// example:
	//  task, _ := sdk.GetTask("0x70997970C51812dc3A010C7d01b50e0d17dc79C8", 1)
	//  fmt.Println(task.Steps)
	GetTask(trainer string, jobID uint64) (Task, error)

	// SubmitUpdate reports a trainer update encoded as JSON.
	SubmitUpdate(report UpdateReport) (UpdateResult, error)

	// SubmitUpdateCBOR reports a trainer update encoded as CBOR.
	SubmitUpdateCBOR(report UpdateReport) (UpdateResult, error)

	// SubmitValidation reports a validator verdict.
	SubmitValidation(report ValidationReport) (ValidationAck, error)
}

type orchSDK struct {
	orchestratorURL string
	client          *http.Client
}

type Config struct {
	OrchestratorURL string
	TLSVerification bool
	Timeout         time.Duration
}

func NewSDK(cfg Config) SDK {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defTimeout
	}

	return &orchSDK{
		orchestratorURL: cfg.OrchestratorURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

type errorRes struct {
	Err string `json:"error"`
}

func (sdk *orchSDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var e errorRes
		if json.Unmarshal(body, &e) == nil && e.Err != "" {
			return []byte{}, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, e.Err)
		}

		return []byte{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return body, nil
}

func (sdk *orchSDK) get(path string, out any) error {
	body, err := sdk.processRequest(http.MethodGet, sdk.orchestratorURL+path, "", nil, http.StatusOK)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, out)
}

func (sdk *orchSDK) post(path, contentType string, data []byte, out any) error {
	body, err := sdk.processRequest(http.MethodPost, sdk.orchestratorURL+path, contentType, data, http.StatusOK)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	return json.Unmarshal(body, out)
}
