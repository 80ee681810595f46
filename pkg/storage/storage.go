// Package storage provides keyed record storage for orchestrator
// bookkeeping that lives outside the interaction graph.
package storage

import "context"

type Storage interface {
	Get(ctx context.Context, key string) (any, error)
	// Put creates or replaces the value stored under key.
	Put(ctx context.Context, key string, value any) error
	List(ctx context.Context, offset, limit uint64) ([]any, uint64, error)
	Delete(ctx context.Context, key string) error
}
