package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/6amape9I/parallel--funetun/pkg/errors"
)

type inMemoryStorage struct {
	sync.Mutex

	data map[string]any
	keys []string
}

// NewInMemoryStorage returns a storage that lists entries in insertion
// order.
func NewInMemoryStorage() Storage {
	return &inMemoryStorage{
		data: make(map[string]any),
	}
}

func (s *inMemoryStorage) Get(_ context.Context, key string) (any, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if val, ok := s.data[key]; ok {
		return val, nil
	}

	return nil, errors.ErrNotFound
}

func (s *inMemoryStorage) Put(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.data[key] = value

	return nil
}

func (s *inMemoryStorage) List(_ context.Context, offset, limit uint64) ([]any, uint64, error) {
	s.Lock()
	defer s.Unlock()

	total := uint64(len(s.keys))
	if offset >= total {
		return []any{}, total, nil
	}

	end := min(offset+limit, total)
	result := make([]any, 0, end-offset)
	for _, k := range s.keys[offset:end] {
		result = append(result, s.data[k])
	}

	return result, total, nil
}

func (s *inMemoryStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })

	return nil
}
