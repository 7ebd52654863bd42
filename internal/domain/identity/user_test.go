package identity

import (
	"testing"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("  Jane.Doe@Example.COM ", " Jane ", "Doe", "Password123")

		require.NoError(t, err)
		assert.Equal(t, "jane.doe@example.com", user.Email)
		assert.Equal(t, "Jane Doe", user.FullName())
		assert.True(t, user.IsActive)
		assert.Equal(t, valueobject.USD, user.PreferredCurrency)
		assert.Equal(t, "UTC", user.TimeZone)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Password123"))
		assert.False(t, user.VerifyPassword("wrong"))

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*UserCreatedEvent)
		assert.True(t, ok)
	})

	tests := []struct {
		name     string
		email    string
		first    string
		last     string
		password string
	}{
		{"empty email", "", "Jane", "Doe", "Password123"},
		{"malformed email", "jane-at-example", "Jane", "Doe", "Password123"},
		{"missing first name", "jane@example.com", " ", "Doe", "Password123"},
		{"missing last name", "jane@example.com", "Jane", "", "Password123"},
		{"short password", "jane@example.com", "Jane", "Doe", "abc1"},
		{"password without number", "jane@example.com", "Jane", "Doe", "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.first, tt.last, tt.password)
			assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		})
	}
}

func TestUser_UpdatePreferences(t *testing.T) {
	user, err := NewUser("jane@example.com", "Jane", "Doe", "Password123")
	require.NoError(t, err)

	require.NoError(t, user.UpdatePreferences(" eur ", "UTC"))
	assert.Equal(t, valueobject.EUR, user.PreferredCurrency)

	assert.ErrorIs(t, user.UpdatePreferences("EURO", "UTC"), shared.ErrInvalidCurrency)
	assert.ErrorIs(t, user.UpdatePreferences("GBP", "Not/AZone"), shared.ErrInvalidArgument)
	assert.ErrorIs(t, user.UpdatePreferences("GBP", " "), shared.ErrInvalidArgument)
	assert.Equal(t, valueobject.EUR, user.PreferredCurrency)
}

func TestUser_Lifecycle(t *testing.T) {
	user, err := NewUser("jane@example.com", "Jane", "Doe", "Password123")
	require.NoError(t, err)
	user.ClearDomainEvents()

	require.NoError(t, user.RecordLogin())
	assert.NotNil(t, user.LastLoginAt)

	require.NoError(t, user.Deactivate())
	assert.False(t, user.IsActive)
	assert.ErrorIs(t, user.Deactivate(), shared.ErrIllegalTransition)
	assert.ErrorIs(t, user.RecordLogin(), shared.ErrIllegalOperation)
	require.Len(t, user.GetDomainEvents(), 1)

	user.Activate()
	assert.True(t, user.IsActive)
}

func TestUser_UpdateProfile(t *testing.T) {
	user, err := NewUser("jane@example.com", "Jane", "Doe", "Password123")
	require.NoError(t, err)

	require.NoError(t, user.UpdateProfile("Janet", "Smith", " https://cdn.example.com/a.png "))
	assert.Equal(t, "Janet Smith", user.FullName())
	assert.Equal(t, "https://cdn.example.com/a.png", user.ProfileImageURL)

	assert.ErrorIs(t, user.UpdateProfile("", "Smith", ""), shared.ErrInvalidArgument)
	assert.Equal(t, "Janet", user.FirstName)
}
