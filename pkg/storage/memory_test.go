package storage_test

import (
	"context"
	"testing"

	"github.com/6amape9I/parallel--funetun/pkg/errors"
	"github.com/6amape9I/parallel--funetun/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := storage.NewInMemoryStorage()

	require.NoError(t, s.Put(ctx, "a", 1))
	assert.ErrorIs(t, s.Put(ctx, "", 2), errors.ErrEmptyKey)

	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, errors.ErrEmptyKey)

	require.NoError(t, s.Put(ctx, "a", 10))

	require.NoError(t, s.Put(ctx, "b", 2))
	require.NoError(t, s.Put(ctx, "c", 3))
	require.NoError(t, s.Put(ctx, "b", 20))

	items, total, err := s.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []any{10, 20, 3}, items)

	items, total, err = s.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []any{20}, items)

	require.NoError(t, s.Delete(ctx, "b"))
	require.NoError(t, s.Delete(ctx, "b"))
	items, total, err = s.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, []any{10, 3}, items)

	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, ""), errors.ErrEmptyKey)

	items, _, err = s.List(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}
