package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

const (
	maxNameLength  = 100
	maxEmailLength = 200
	// bcrypt ignores input past 72 bytes
	maxPasswordLength = 72
	minPasswordLength = 8
	defaultTimeZone   = "UTC"
)

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterPattern = regexp.MustCompile(`[a-zA-Z]`)
	hasNumberPattern = regexp.MustCompile(`[0-9]`)
)

// User is an account that owns expenses, budgets, invoices and categories
type User struct {
	shared.BaseAggregateRoot
	Email             string
	FirstName         string
	LastName          string
	PasswordHash      string
	ProfileImageURL   string
	IsActive          bool
	LastLoginAt       *time.Time
	PreferredCurrency valueobject.Currency
	TimeZone          string
}

// NewUser creates an active user with a hashed password
func NewUser(email, firstName, lastName, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	firstName, lastName, err = validateNames(firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		FirstName:         firstName,
		LastName:          lastName,
		PasswordHash:      passwordHash,
		IsActive:          true,
		PreferredCurrency: valueobject.DefaultCurrency,
		TimeZone:          defaultTimeZone,
	}
	user.AddDomainEvent(NewUserCreatedEvent(user))
	return user, nil
}

// FullName returns first and last name separated by a space
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UpdateProfile changes the display fields of the user
func (u *User) UpdateProfile(firstName, lastName, profileImageURL string) error {
	firstName, lastName, err := validateNames(firstName, lastName)
	if err != nil {
		return err
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.ProfileImageURL = strings.TrimSpace(profileImageURL)
	u.Touch()
	return nil
}

// UpdatePreferences sets the preferred currency and IANA time zone
func (u *User) UpdatePreferences(currency, timeZone string) error {
	cur, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return err
	}
	timeZone = strings.TrimSpace(timeZone)
	if timeZone == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Time zone cannot be empty")
	}
	if _, err := time.LoadLocation(timeZone); err != nil {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Unknown time zone %q", timeZone)
	}
	u.PreferredCurrency = cur
	u.TimeZone = timeZone
	u.Touch()
	return nil
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Failed to hash password")
	}
	u.PasswordHash = passwordHash
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin() error {
	if !u.IsActive {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Deactivated users cannot log in")
	}
	now := time.Now()
	u.LastLoginAt = &now
	u.Touch()
	return nil
}

// Deactivate disables the account
func (u *User) Deactivate() error {
	if !u.IsActive {
		return shared.NewDomainError(shared.CodeIllegalTransition, "User is already deactivated")
	}
	u.IsActive = false
	u.Touch()
	u.AddDomainEvent(NewUserDeactivatedEvent(u))
	return nil
}

// Activate re-enables a deactivated account
func (u *User) Activate() {
	u.IsActive = true
	u.Touch()
}

// NormalizeEmail trims and lowercases an email and checks its format
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", shared.NewDomainError(shared.CodeInvalidArgument, "Email cannot be empty")
	}
	if len(email) > maxEmailLength {
		return "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Email cannot exceed %d characters", maxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return "", shared.NewDomainError(shared.CodeInvalidArgument, "Invalid email format")
	}
	return email, nil
}

func validateNames(firstName, lastName string) (string, string, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "First name cannot be empty")
	}
	if lastName == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Last name cannot be empty")
	}
	if utf8.RuneCountInString(firstName) > maxNameLength || utf8.RuneCountInString(lastName) > maxNameLength {
		return "", "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Names cannot exceed %d characters", maxNameLength)
	}
	return firstName, lastName, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Password cannot exceed %d bytes", maxPasswordLength)
	}
	if !hasLetterPattern.MatchString(password) || !hasNumberPattern.MatchString(password) {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
