package graph

import "time"

// Store is an insertion-ordered node and edge table. It is not safe for
// concurrent use; callers serialize access.
type Store struct {
	contractLabel string
	now           func() time.Time

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[EdgeKey]*Edge
	edgeOrder []EdgeKey
}

type Option func(*Store)

// WithClock overrides the clock used to stamp last_seen.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a store holding only the permanent orchestrator and
// contract nodes.
func NewStore(contractLabel string, opts ...Option) *Store {
	s := &Store{
		contractLabel: contractLabel,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()

	return s
}

// EnsureNode creates the node if absent. An existing node only has its
// last_seen refreshed; label and type are kept from the first call.
func (s *Store) EnsureNode(id, label string, t NodeType) {
	now := s.now()
	if n, ok := s.nodes[id]; ok {
		n.LastSeen = now

		return
	}

	s.nodes[id] = &Node{
		ID:       id,
		Label:    label,
		Type:     t,
		Status:   StatusActive,
		LastSeen: now,
	}
	s.nodeOrder = append(s.nodeOrder, id)
}

// UpdateStatus is a no-op for unknown nodes.
func (s *Store) UpdateStatus(id, status string) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	n.Status = status
	n.LastSeen = s.now()
}

func (s *Store) RecordEdge(source, target, label string) {
	key := EdgeKey{Source: source, Target: target, Label: label}
	now := s.now()
	if e, ok := s.edges[key]; ok {
		e.Count++
		e.LastSeen = now

		return
	}

	s.edges[key] = &Edge{
		ID:       key.String(),
		Source:   source,
		Target:   target,
		Label:    label,
		Count:    1,
		LastSeen: now,
	}
	s.edgeOrder = append(s.edgeOrder, key)
}

func (s *Store) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}

	return *n, true
}

func (s *Store) Edge(key EdgeKey) (Edge, bool) {
	e, ok := s.edges[key]
	if !ok {
		return Edge{}, false
	}

	return *e, true
}

func (s *Store) NodeCount() int {
	return len(s.nodeOrder)
}

func (s *Store) EdgeCount() int {
	return len(s.edgeOrder)
}

// Snapshot copies every node and edge in insertion order.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes: make([]Node, 0, len(s.nodeOrder)),
		Edges: make([]Edge, 0, len(s.edgeOrder)),
	}
	for _, id := range s.nodeOrder {
		snap.Nodes = append(snap.Nodes, *s.nodes[id])
	}
	for _, key := range s.edgeOrder {
		snap.Edges = append(snap.Edges, *s.edges[key])
	}

	return snap
}

// Reset drops all nodes and edges and recreates the permanent nodes.
func (s *Store) Reset() {
	s.nodes = make(map[string]*Node)
	s.nodeOrder = nil
	s.edges = make(map[EdgeKey]*Edge)
	s.edgeOrder = nil

	s.EnsureNode(OrchestratorID, orchestratorLabel, Orchestrator)
	s.EnsureNode(ContractID, s.contractLabel, Contract)
}
