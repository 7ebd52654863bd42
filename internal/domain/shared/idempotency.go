package shared

import (
	"context"
	"time"
)

// ReservationStore claims keys for a limited time. It backs invoice number
// reservation and duplicate event suppression.
type ReservationStore interface {
	// Reserve claims key for ttl.
	// Returns true if the key was newly claimed, false if it was already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsReserved reports whether key is currently held
	IsReserved(ctx context.Context, key string) (bool, error)

	// Release drops a claim before its ttl expires
	Release(ctx context.Context, key string) error
}
