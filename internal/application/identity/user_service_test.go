package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("jane@example.com", "Jane", "Doe", "secret123")
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func TestUserService_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		pub := new(MockEventPublisher)
		svc := NewUserService(repo, pub, zap.NewNop())

		repo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == identity.EventTypeUserCreated
		})).Return(nil)

		dto, err := svc.Register(context.Background(), RegisterInput{
			Email: "  Jane@Example.com ", FirstName: "Jane", LastName: "Doe", Password: "secret123",
		})
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", dto.Email)
		assert.Equal(t, "Jane Doe", dto.FullName)
		assert.Equal(t, "USD", dto.PreferredCurrency)
		assert.True(t, dto.IsActive)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil, zap.NewNop())
		repo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(true, nil)

		_, err := svc.Register(context.Background(), RegisterInput{
			Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Password: "secret123",
		})
		assert.ErrorIs(t, err, shared.ErrDuplicateName)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil, zap.NewNop())
		repo.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil)

		_, err := svc.Register(context.Background(), RegisterInput{
			Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Password: "password",
		})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	user := newTestUser(t)
	repo := new(MockUserRepository)
	svc := NewUserService(repo, nil, zap.NewNop())
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, user).Return(nil)

	dto, err := svc.Authenticate(context.Background(), "JANE@example.com", "secret123")
	require.NoError(t, err)
	assert.NotNil(t, dto.LastLoginAt)

	_, err = svc.Authenticate(context.Background(), "jane@example.com", "wrong-pass1")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Authenticate(context.Background(), "ghost@example.com", "secret123")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestUserService_ProfileAndPreferences(t *testing.T) {
	user := newTestUser(t)
	repo := new(MockUserRepository)
	svc := NewUserService(repo, nil, zap.NewNop())
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)
	ctx := context.Background()

	dto, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{FirstName: "Janet", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "Janet Doe", dto.FullName)

	dto, err = svc.UpdatePreferences(ctx, user.ID, UpdatePreferencesInput{PreferredCurrency: "eur", TimeZone: "Europe/Amsterdam"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", dto.PreferredCurrency)
	assert.Equal(t, "Europe/Amsterdam", dto.TimeZone)

	_, err = svc.UpdatePreferences(ctx, user.ID, UpdatePreferencesInput{PreferredCurrency: "EUR", TimeZone: "Mars/Base"})
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	dto, err = svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", dto.PreferredCurrency)
}

func TestUserService_Deactivate(t *testing.T) {
	user := newTestUser(t)
	repo := new(MockUserRepository)
	pub := new(MockEventPublisher)
	svc := NewUserService(repo, pub, zap.NewNop())
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	dto, err := svc.Deactivate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)

	_, err = svc.Deactivate(context.Background(), user.ID)
	assert.ErrorIs(t, err, shared.ErrIllegalTransition)

	_, err = svc.RecordLogin(context.Background(), user.ID)
	assert.ErrorIs(t, err, shared.ErrIllegalOperation)
	pub.AssertExpectations(t)
}

func TestUserService_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewUserService(repo, nil, zap.NewNop())
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := svc.GetProfile(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
