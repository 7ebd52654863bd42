package models

import (
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
)

// UserModel is the persistence model for the User aggregate root
type UserModel struct {
	AggregateModel
	Email             string `gorm:"type:varchar(200);not null;uniqueIndex"`
	FirstName         string `gorm:"type:varchar(100);not null"`
	LastName          string `gorm:"type:varchar(100);not null"`
	PasswordHash      string `gorm:"type:varchar(255);not null"`
	ProfileImageURL   string `gorm:"type:varchar(500)"`
	IsActive          bool   `gorm:"not null;default:true"`
	LastLoginAt       *time.Time
	PreferredCurrency string `gorm:"type:varchar(3);not null;default:'USD'"`
	TimeZone          string `gorm:"type:varchar(64);not null;default:'UTC'"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		PasswordHash:      m.PasswordHash,
		ProfileImageURL:   m.ProfileImageURL,
		IsActive:          m.IsActive,
		LastLoginAt:       m.LastLoginAt,
		PreferredCurrency: valueobject.Currency(m.PreferredCurrency),
		TimeZone:          m.TimeZone,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		PasswordHash:      u.PasswordHash,
		ProfileImageURL:   u.ProfileImageURL,
		IsActive:          u.IsActive,
		LastLoginAt:       u.LastLoginAt,
		PreferredCurrency: u.PreferredCurrency.String(),
		TimeZone:          u.TimeZone,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
