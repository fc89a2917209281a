package state

import (
	"context"
	"errors"
)

// ErrCorrupt is returned when a persisted value cannot be decoded.
var ErrCorrupt = errors.New("state: corrupt session value")

// Store persists one value of type T per Telegram user.
type Store[T any] interface {
	// Load returns the stored value and true, or the zero value and false
	// when the user has no live entry.
	Load(ctx context.Context, userID int64) (T, bool, error)
	// Save creates or replaces the entry and refreshes its idle deadline.
	Save(ctx context.Context, userID int64, v T) error
	// Delete removes the entry; deleting a missing entry is not an error.
	Delete(ctx context.Context, userID int64) error
}

// Locker is implemented by stores shared between processes. Lock blocks until
// the caller holds the user's entry exclusively or ctx ends; the returned
// func releases it.
type Locker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

var (
	_ Locker          = (*RedisStore[struct{}])(nil)
	_ Store[struct{}] = (*MemoryStore[struct{}])(nil)
	_ Store[struct{}] = (*RedisStore[struct{}])(nil)
)
