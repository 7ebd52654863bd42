package auth

import (
	"context"
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

const revokedKeyPrefix = "token:revoked:"

// TokenBlacklist invalidates access tokens before they expire (logout).
// Entries live in a ReservationStore until the token would have expired anyway.
type TokenBlacklist struct {
	store shared.ReservationStore
	now   func() time.Time
}

// NewTokenBlacklist creates a blacklist backed by store
func NewTokenBlacklist(store shared.ReservationStore) *TokenBlacklist {
	return &TokenBlacklist{store: store, now: time.Now}
}

// Revoke blacklists the token described by claims
func (b *TokenBlacklist) Revoke(ctx context.Context, claims *Claims) error {
	ttl := claims.RemainingTTL(b.now())
	if ttl <= 0 || claims.ID == "" {
		return nil
	}
	_, err := b.store.Reserve(ctx, revokedKeyPrefix+claims.ID, ttl)
	return err
}

// IsRevoked reports whether the token ID was revoked
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return b.store.IsReserved(ctx, revokedKeyPrefix+jti)
}
