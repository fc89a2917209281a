package directory

import "context"

// Store is the persistence contract of the directory. Implementations must
// allow concurrent Insert calls; each insert is atomic and assigns a unique,
// increasing identity.
type Store interface {
	Insert(ctx context.Context, d Draft) (int64, error)
	// Query returns matching records ordered by ascending ID.
	Query(ctx context.Context, f Filter) ([]Contact, error)
	// DistinctValues returns the non-null values of col without duplicates,
	// in no particular order.
	DistinctValues(ctx context.Context, col Column) ([]string, error)
}
