package directory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used for development runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Contact
	nextID  int64
	closed  bool
	now     func() time.Time
}

// NewMemoryStore returns an empty store whose first identity is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

// Insert appends d under a fresh identity.
func (s *MemoryStore) Insert(_ context.Context, d Draft) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("%w: %w", ErrStoreWrite, ErrStoreUnavailable)
	}
	id := s.nextID
	s.nextID++
	s.records = append(s.records, Contact{
		ID:         id,
		Name:       d.Name,
		Phone:      d.Phone,
		Profession: cloneString(d.Profession),
		Region:     cloneString(d.Region),
		CreatedAt:  s.now().UTC(),
	})
	return id, nil
}

// Query returns copies of the matching records in insertion order.
func (s *MemoryStore) Query(_ context.Context, f Filter) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	out := []Contact{}
	for _, c := range s.records {
		if !f.Matches(c) {
			continue
		}
		c.Profession = cloneString(c.Profession)
		c.Region = cloneString(c.Region)
		out = append(out, c)
	}
	return out, nil
}

// DistinctValues lists the non-null values of col.
func (s *MemoryStore) DistinctValues(_ context.Context, col Column) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	if col != ColumnRegion && col != ColumnProfession {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, c := range s.records {
		v := c.Region
		if col == ColumnProfession {
			v = c.Profession
		}
		if v == nil {
			continue
		}
		if _, dup := seen[*v]; dup {
			continue
		}
		seen[*v] = struct{}{}
		out = append(out, *v)
	}
	return out, nil
}

// Close makes every later call fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
