package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(newTestDB(t))

	user, err := identity.NewUser("Jane.Doe@Example.com", "Jane", "Doe", "S3cure-pass1")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, user))

	found, err := repo.FindByEmail(ctx, "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.VerifyPassword("S3cure-pass1"))

	exists, err := repo.ExistsByEmail(ctx, "JANE.DOE@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, found.UpdatePreferences("EUR", "Europe/Amsterdam"))
	require.NoError(t, repo.Save(ctx, found))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", reloaded.PreferredCurrency.String())
	assert.Equal(t, "Europe/Amsterdam", reloaded.TimeZone)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCategoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(newTestDB(t))
	owner := uuid.New()

	pets, err := finance.NewUserCategory(owner, "Pets", "Food and vet", "#22AA88", "paw")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pets))

	exists, err := repo.ExistsByName(ctx, owner, "pets")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByName(ctx, uuid.New(), "Pets")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, pets.Deactivate())
	require.NoError(t, repo.Save(ctx, pets))

	list, err := repo.FindByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)
	assert.Equal(t, "paw", list[0].Icon)

	require.NoError(t, repo.Delete(ctx, pets.ID))
	_, err = repo.FindByID(ctx, pets.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
