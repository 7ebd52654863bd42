package models

import (
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
)

// CategoryModel is the persistence model for a user-defined category.
// System categories live in code and are never stored.
type CategoryModel struct {
	OwnedAggregateModel
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:varchar(500)"`
	Color       string `gorm:"type:varchar(20)"`
	Icon        string `gorm:"type:varchar(50)"`
	IsActive    bool   `gorm:"not null;default:true"`
	SortOrder   int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() finance.Category {
	return finance.Category{
		OwnedAggregateRoot: m.ToOwned(),
		Name:               m.Name,
		Description:        m.Description,
		Color:              m.Color,
		Icon:               m.Icon,
		IsActive:           m.IsActive,
		SortOrder:          m.SortOrder,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category
func CategoryModelFromDomain(c *finance.Category) *CategoryModel {
	m := &CategoryModel{
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
	}
	m.FromDomainOwned(c.OwnedAggregateRoot)
	return m
}
