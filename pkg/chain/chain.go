// Package chain is the orchestrator's view of the JobManager contract. The
// orchestrator only needs to know whether the chain is reachable and to
// prepare unsigned transactions for reported updates; signing and sending
// stays with the participants.
package chain

import (
	"context"
	"errors"
)

// Gas limit attached to prepared submitUpdate transactions.
const SubmitUpdateGas uint64 = 500_000

var (
	ErrNotReady       = errors.New("contract not ready")
	ErrABINotFound    = errors.New("contract ABI not found")
	ErrInvalidAddress = errors.New("invalid address")
)

type Transaction struct {
	To    string `json:"to"`
	Gas   uint64 `json:"gas"`
	Nonce uint64 `json:"nonce"`
	Data  string `json:"data,omitempty"`
}

type Client interface {
	// IsConnected reports whether the RPC node answers.
	IsConnected(ctx context.Context) bool

	// ContractReady reports whether transactions against the contract can
	// be prepared: the node answers and the ABI is loaded.
	ContractReady(ctx context.Context) bool

	// BuildSubmitUpdate prepares submitUpdate(jobID, keccak256(updateHash))
	// sent from the given address. ErrNotReady is returned when the
	// contract is unavailable.
	BuildSubmitUpdate(ctx context.Context, jobID uint64, updateHash, from string) (Transaction, error)
}

type unavailable struct{}

// NewUnavailable returns a client for deployments without a chain.
func NewUnavailable() Client {
	return unavailable{}
}

func (unavailable) IsConnected(context.Context) bool {
	return false
}

func (unavailable) ContractReady(context.Context) bool {
	return false
}

func (unavailable) BuildSubmitUpdate(context.Context, uint64, string, string) (Transaction, error) {
	return Transaction{}, ErrNotReady
}
