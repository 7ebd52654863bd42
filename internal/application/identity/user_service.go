package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// UserService handles user registration and profile management
type UserService struct {
	userRepo  identity.UserRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterInput contains input for registering a user
type RegisterInput struct {
	Email     string `json:"email" binding:"required,email,max=200"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

// UpdateProfileInput contains input for updating a profile
type UpdateProfileInput struct {
	FirstName       string `json:"first_name" binding:"required,max=100"`
	LastName        string `json:"last_name" binding:"required,max=100"`
	ProfileImageURL string `json:"profile_image_url" binding:"omitempty,url,max=500"`
}

// UpdatePreferencesInput contains input for updating preferences
type UpdatePreferencesInput struct {
	PreferredCurrency string `json:"preferred_currency" binding:"required,len=3"`
	TimeZone          string `json:"time_zone" binding:"required"`
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	FullName          string     `json:"full_name"`
	ProfileImageURL   string     `json:"profile_image_url,omitempty"`
	IsActive          bool       `json:"is_active"`
	PreferredCurrency string     `json:"preferred_currency"`
	TimeZone          string     `json:"time_zone"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Register creates a new user account
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "register")
	defer span.End()

	email, err := identity.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf(shared.CodeDuplicateName, "Email %s is already registered", email)
	}

	user, err := identity.NewUser(email, input.FirstName, input.LastName, input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	s.publish(ctx, user)
	return toUserDTO(user), nil
}

// Authenticate checks credentials and records the login
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*UserDTO, error) {
	normalized, err := identity.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeForbidden, "Invalid email or password")
		}
		return nil, err
	}
	if !user.VerifyPassword(password) {
		s.logger.Warn("Login failed", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError(shared.CodeForbidden, "Invalid email or password")
	}
	if err := user.RecordLogin(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// GetProfile returns a user's profile
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// UpdateProfile changes a user's name and profile image
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	return s.mutate(ctx, userID, func(u *identity.User) error {
		return u.UpdateProfile(input.FirstName, input.LastName, input.ProfileImageURL)
	})
}

// UpdatePreferences changes a user's currency and time zone
func (s *UserService) UpdatePreferences(ctx context.Context, userID uuid.UUID, input UpdatePreferencesInput) (*UserDTO, error) {
	return s.mutate(ctx, userID, func(u *identity.User) error {
		return u.UpdatePreferences(input.PreferredCurrency, input.TimeZone)
	})
}

// RecordLogin stamps the user's last login time
func (s *UserService) RecordLogin(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	return s.mutate(ctx, userID, (*identity.User).RecordLogin)
}

// Deactivate disables a user account
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	dto, err := s.mutate(ctx, userID, (*identity.User).Deactivate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User deactivated", zap.String("user_id", userID.String()))
	return dto, nil
}

func (s *UserService) mutate(ctx context.Context, userID uuid.UUID, fn func(*identity.User) error) (*UserDTO, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	return toUserDTO(user), nil
}

func (s *UserService) find(ctx context.Context, userID uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish user events", zap.Error(err))
	}
}

func toUserDTO(u *identity.User) *UserDTO {
	return &UserDTO{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		FullName:          u.FullName(),
		ProfileImageURL:   u.ProfileImageURL,
		IsActive:          u.IsActive,
		PreferredCurrency: u.PreferredCurrency.String(),
		TimeZone:          u.TimeZone,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
