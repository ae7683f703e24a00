package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded records in memory. Records still go through the
// JSON envelope so behaviour matches the durable backends.
type MemoryStore[T ValidatingSpec] struct {
	mu      sync.RWMutex
	records map[Identifier][]byte
}

func NewMemoryStore[T ValidatingSpec]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[Identifier][]byte{}}
}

func (s *MemoryStore[T]) Save(ctx context.Context, id Identifier, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeAsset(id, v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = data
	return nil
}

func (s *MemoryStore[T]) Load(ctx context.Context, id Identifier) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return zero, ErrNotFound
	}

	return decodeAsset[T](id, data)
}

// Raw returns the encoded record for id.
func (s *MemoryStore[T]) Raw(id Identifier) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[id]
	return data, ok
}

// SetRaw replaces the encoded record for id without validation.
func (s *MemoryStore[T]) SetRaw(id Identifier, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = data
}
