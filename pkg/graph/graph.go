// Package graph tracks the participants of a training job and the
// interactions between them as a deduplicated, counted edge set.
package graph

import (
	"strings"
	"time"
)

const (
	OrchestratorID = "orchestrator"
	ContractID     = "contract"

	orchestratorLabel = "Orchestrator"
)

type NodeType string

const (
	Orchestrator NodeType = "orchestrator"
	Contract     NodeType = "contract"
	Trainer      NodeType = "trainer"
	Validator    NodeType = "validator"
)

func (t NodeType) String() string {
	return string(t)
}

// Node statuses set by the orchestrator. Status is free-form; these are the
// values the round machine and report handlers use.
const (
	StatusActive     = "active"
	StatusRequesting = "requesting"
	StatusTraining   = "training"
	StatusSubmitted  = "submitted"
	StatusValidating = "validating"
	StatusIdle       = "idle"
)

// Edge labels.
const (
	RequestTask      = "request_task"
	AssignTask       = "assign_task"
	SubmitUpdate     = "submit_update"
	ValidateUpdate   = "validate_update"
	SubmitAggregated = "submit_aggregated"
	EpochComplete    = "epoch_complete"
)

type Node struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     NodeType  `json:"type"`
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

type EdgeKey struct {
	Source string
	Target string
	Label  string
}

func (k EdgeKey) String() string {
	return k.Source + "|" + k.Target + "|" + k.Label
}

type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given id from the snapshot.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return Node{}, false
}

// Edge returns the edge with the given key from the snapshot.
func (s Snapshot) Edge(key EdgeKey) (Edge, bool) {
	id := key.String()
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}

	return Edge{}, false
}

// NodesOfType returns the snapshot nodes of type t, in store order.
func (s Snapshot) NodesOfType(t NodeType) []Node {
	var nodes []Node
	for _, n := range s.Nodes {
		if n.Type == t {
			nodes = append(nodes, n)
		}
	}

	return nodes
}

func TrainerID(address string) string {
	return string(Trainer) + ":" + strings.ToLower(address)
}

func ValidatorID(address string) string {
	return string(Validator) + ":" + strings.ToLower(address)
}
