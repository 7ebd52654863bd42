package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/cache"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService(now time.Time) *JWTService {
	svc := NewJWTService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "expenseai-test",
		TokenTTL: 15 * time.Minute,
	}, WithClock(func() time.Time { return now }))
	return svc
}

func TestNewJWTService_DefaultTTL(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	assert.Equal(t, DefaultTokenTTL, svc.ttl)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	svc := newTestJWTService(now)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, now.Add(15*time.Minute), token.ExpiresAt)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	got, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "expenseai-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 15*time.Minute, claims.RemainingTTL(now))

	_, err = svc.GenerateToken(uuid.Nil, "")
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	svc := newTestJWTService(now)
	token, err := svc.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestJWTService(now.Add(time.Hour))
		_, err := later.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "expenseai-test"},
			WithClock(func() time.Time { return now }))
		_, err := other.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"},
			WithClock(func() time.Time { return now }))
		_, err := other.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.NewString()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "expenseai-test", ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))},
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryReservationStore()
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now()
	svc := newTestJWTService(now)
	token, err := svc.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)

	bl := NewTokenBlacklist(store)
	bl.now = func() time.Time { return now }

	revoked, err := bl.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, claims))
	revoked, err = bl.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)

	expired := &Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "old", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
	require.NoError(t, bl.Revoke(ctx, expired))
	assert.Equal(t, 1, store.Len())
}
