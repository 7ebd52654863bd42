package finance

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

const (
	// DefaultCategoryColor is used when a category is registered without a colour
	DefaultCategoryColor = "#6B7280"
	// DefaultCategoryIcon is used when a category is registered without an icon
	DefaultCategoryIcon = "receipt"

	maxCategoryNameLength        = 100
	maxCategoryDescriptionLength = 500
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// systemCategoryNamespace derives stable IDs for system categories
var systemCategoryNamespace = uuid.MustParse("6f1c1a52-7c7e-4c1e-9f0a-3b9f2f2b8e11")

// Category classifies expenses and budgets.
// System categories are seeded and immutable; user categories are persisted per owner.
type Category struct {
	shared.OwnedAggregateRoot
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsSystem    bool   `json:"is_system"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// NewSystemCategory builds a seeded category with a deterministic ID
func NewSystemCategory(name, description, color, icon string, sortOrder int) Category {
	root := shared.NewOwnedAggregateRoot(uuid.Nil)
	root.ID = uuid.NewSHA1(systemCategoryNamespace, []byte(foldName(name)))
	return Category{
		OwnedAggregateRoot: root,
		Name:               name,
		Description:        description,
		Color:              color,
		Icon:               icon,
		IsSystem:           true,
		IsActive:           true,
		SortOrder:          sortOrder,
	}
}

// NewUserCategory creates a user-defined category after validating its fields.
// Name collisions are checked by Taxonomy.Register, not here.
func NewUserCategory(ownerID uuid.UUID, name, description, color, icon string) (*Category, error) {
	name, description, color, icon, err := normalizeCategoryFields(name, description, color, icon)
	if err != nil {
		return nil, err
	}
	return &Category{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Description:        description,
		Color:              color,
		Icon:               icon,
		IsActive:           true,
	}, nil
}

// Update changes the presentation fields of a user category
func (c *Category) Update(name, description, color, icon string) error {
	if c.IsSystem {
		return shared.NewDomainErrorf(shared.CodeSystemCategoryProtected, "System category %s cannot be modified", c.Name)
	}
	name, description, color, icon, err := normalizeCategoryFields(name, description, color, icon)
	if err != nil {
		return err
	}
	c.Name = name
	c.Description = description
	c.Color = color
	c.Icon = icon
	c.Touch()
	return nil
}

// Deactivate soft-deletes a user category
func (c *Category) Deactivate() error {
	if c.IsSystem {
		return shared.NewDomainErrorf(shared.CodeSystemCategoryProtected, "System category %s cannot be deactivated", c.Name)
	}
	c.IsActive = false
	c.Touch()
	return nil
}

// Activate restores a deactivated category
func (c *Category) Activate() {
	c.IsActive = true
	c.Touch()
}

// Matches reports whether name refers to this category, ignoring case
func (c *Category) Matches(name string) bool {
	return foldName(c.Name) == foldName(name)
}

func normalizeCategoryFields(name, description, color, icon string) (string, string, string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return "", "", "", "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Category name cannot exceed %d characters", maxCategoryNameLength)
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxCategoryDescriptionLength {
		return "", "", "", "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Category description cannot exceed %d characters", maxCategoryDescriptionLength)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultCategoryColor
	}
	if !hexColorPattern.MatchString(color) {
		return "", "", "", "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Category color %q must be a hex value like #3B82F6", color)
	}
	icon = strings.TrimSpace(icon)
	if icon == "" {
		icon = DefaultCategoryIcon
	}
	return name, description, strings.ToUpper(color), icon, nil
}
