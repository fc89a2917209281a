package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	value   T
	touched time.Time
}

// MemoryStore keeps entries in a process-local map.
type MemoryStore[T any] struct {
	mu          sync.Mutex
	entries     map[int64]memoryEntry[T]
	idleTimeout time.Duration
	now         func() time.Time
}

// NewMemoryStore constructs an in-memory Store. Entries untouched for longer
// than idleTimeout are dropped on the next access; 0 keeps them forever.
func NewMemoryStore[T any](idleTimeout time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		entries:     make(map[int64]memoryEntry[T]),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Load returns the entry for userID unless it is missing or expired.
func (m *MemoryStore[T]) Load(_ context.Context, userID int64) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	e, ok := m.entries[userID]
	if !ok {
		return zero, false, nil
	}
	if m.expired(e) {
		delete(m.entries, userID)
		return zero, false, nil
	}
	return e.value, true, nil
}

// Save stores v for userID.
func (m *MemoryStore[T]) Save(_ context.Context, userID int64, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = memoryEntry[T]{value: v, touched: m.now()}
	return nil
}

// Delete removes the entry for userID.
func (m *MemoryStore[T]) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

// Len reports the number of live entries, pruning expired ones.
func (m *MemoryStore[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
		}
	}
	return len(m.entries)
}

func (m *MemoryStore[T]) expired(e memoryEntry[T]) bool {
	return m.idleTimeout > 0 && m.now().Sub(e.touched) > m.idleTimeout
}
