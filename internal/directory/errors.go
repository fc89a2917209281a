package directory

import "errors"

var (
	// ErrStoreUnavailable is returned when the store cannot be reached or was never opened.
	ErrStoreUnavailable = errors.New("directory: store unavailable")
	// ErrStoreWrite is returned when an insert fails after the store was reached.
	ErrStoreWrite = errors.New("directory: store write failed")
	// ErrUnknownColumn is returned for distinct-value requests on unsupported columns.
	ErrUnknownColumn = errors.New("directory: unknown column")
)
