package interfaces

import "context"

// UnreadCounterStore keeps the per-user unread notification counter that is
// pushed out with every notification event. Backed by a cache, so callers
// treat failures as non-fatal.
type UnreadCounterStore interface {
	// Increment bumps the user's counter and returns the new value
	Increment(ctx context.Context, userID string) (int64, error)

	// Set overwrites the user's counter
	Set(ctx context.Context, userID string, count int64) error

	// Get returns the user's counter, zero when absent
	Get(ctx context.Context, userID string) (int64, error)

	// Clear removes the user's counter
	Clear(ctx context.Context, userID string) error
}
