package finance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"golang.org/x/text/cases"
)

// System category names
const (
	CategoryOffice        = "Office"
	CategoryTravel        = "Travel"
	CategoryMeals         = "Meals"
	CategorySoftware      = "Software"
	CategoryMarketing     = "Marketing"
	CategoryProfessional  = "Professional"
	CategoryUncategorized = "Uncategorized"
)

// DefaultSystemCategories returns the built-in category seed in display order
func DefaultSystemCategories() []Category {
	return []Category{
		NewSystemCategory(CategoryOffice, "Office supplies and equipment", "#3B82F6", "building-office", 1),
		NewSystemCategory(CategoryTravel, "Business travel expenses", "#10B981", "airplane", 2),
		NewSystemCategory(CategoryMeals, "Business meals and entertainment", "#F59E0B", "utensils", 3),
		NewSystemCategory(CategorySoftware, "Software licenses and subscriptions", "#8B5CF6", "computer", 4),
		NewSystemCategory(CategoryMarketing, "Marketing and advertising expenses", "#EF4444", "megaphone", 5),
		NewSystemCategory(CategoryProfessional, "Professional services and consulting", "#6366F1", "briefcase", 6),
		NewSystemCategory(CategoryUncategorized, "Expenses that need categorization", "#9CA3AF", "question-mark", 7),
	}
}

// Taxonomy is an immutable table of categories: a fixed system seed plus the
// user-defined extensions of one owner. Mutating operations return a new
// Taxonomy and leave the receiver untouched, so a single value can be shared
// by every component that needs category lookups.
type Taxonomy struct {
	system        []Category
	user          []Category
	uncategorized Category
}

// DefaultTaxonomy returns a taxonomy seeded with DefaultSystemCategories
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultSystemCategories(), CategoryUncategorized)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTaxonomy builds a taxonomy from a system seed. The seed must contain the
// category named by uncategorized, which becomes the lookup fallback.
func NewTaxonomy(system []Category, uncategorized string) (*Taxonomy, error) {
	t := &Taxonomy{system: make([]Category, 0, len(system))}
	seen := make(map[string]struct{}, len(system))
	for _, c := range system {
		key := foldName(c.Name)
		if key == "" {
			return nil, shared.NewDomainError(shared.CodeInvalidArgument, "System category name cannot be empty")
		}
		if _, dup := seen[key]; dup {
			return nil, shared.NewDomainErrorf(shared.CodeDuplicateName, "System category %s is defined twice", c.Name)
		}
		seen[key] = struct{}{}
		c.IsSystem = true
		c.IsActive = true
		t.system = append(t.system, c)
		if key == foldName(uncategorized) {
			t.uncategorized = c
		}
	}
	if t.uncategorized.Name == "" {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Fallback category %s is not part of the system seed", uncategorized)
	}
	return t, nil
}

// WithUserCategories returns a copy of the taxonomy carrying the given user
// categories. System-flagged entries and names shadowing system categories are skipped.
func (t *Taxonomy) WithUserCategories(categories []Category) *Taxonomy {
	next := t.clone()
	next.user = make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.IsSystem {
			continue
		}
		if _, ok := t.findSystem(c.Name); ok {
			continue
		}
		next.user = append(next.user, c)
	}
	return next
}

// SystemCategories returns the system seed in stable order
func (t *Taxonomy) SystemCategories() []Category {
	out := make([]Category, len(t.system))
	copy(out, t.system)
	return out
}

// UserCategories returns the user-defined categories, active or not
func (t *Taxonomy) UserCategories() []Category {
	out := make([]Category, len(t.user))
	copy(out, t.user)
	return out
}

// ActiveCategories returns system categories followed by active user categories
func (t *Taxonomy) ActiveCategories() []Category {
	out := t.SystemCategories()
	for _, c := range t.user {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// Uncategorized returns the fallback category
func (t *Taxonomy) Uncategorized() Category {
	return t.uncategorized
}

// IsUncategorized reports whether name refers to the fallback category
func (t *Taxonomy) IsUncategorized(name string) bool {
	return foldName(name) == foldName(t.uncategorized.Name)
}

// Lookup finds an active category by name, ignoring case
func (t *Taxonomy) Lookup(name string) (Category, bool) {
	if c, ok := t.findSystem(name); ok {
		return c, true
	}
	if i := t.findUser(name); i >= 0 && t.user[i].IsActive {
		return t.user[i], true
	}
	return Category{}, false
}

// FindByName resolves a category name, falling back to Uncategorized for
// anything unknown, blank or inactive. It never fails.
func (t *Taxonomy) FindByName(name string) Category {
	if c, ok := t.Lookup(name); ok {
		return c
	}
	return t.uncategorized
}

// Register adds a user category and returns the extended taxonomy
func (t *Taxonomy) Register(ownerID uuid.UUID, name, description, color, icon string) (*Taxonomy, *Category, error) {
	category, err := NewUserCategory(ownerID, name, description, color, icon)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := t.findSystem(category.Name); ok {
		return nil, nil, shared.NewDomainErrorf(shared.CodeReservedName, "Category name %s is reserved for a system category", category.Name)
	}
	if t.findUser(category.Name) >= 0 {
		return nil, nil, shared.NewDomainErrorf(shared.CodeDuplicateName, "Category %s already exists", category.Name)
	}
	category.SortOrder = len(t.system) + len(t.user) + 1

	next := t.clone()
	next.user = append(next.user, *category)
	return next, category, nil
}

// Deactivate marks a user category inactive and returns the resulting taxonomy
func (t *Taxonomy) Deactivate(name string) (*Taxonomy, *Category, error) {
	if c, ok := t.findSystem(name); ok {
		return nil, nil, shared.NewDomainErrorf(shared.CodeSystemCategoryProtected, "System category %s cannot be deactivated", c.Name)
	}
	i := t.findUser(name)
	if i < 0 {
		return nil, nil, shared.NewDomainErrorf(shared.CodeNotFound, "Category %s not found", strings.TrimSpace(name))
	}
	next := t.clone()
	category := next.user[i]
	if err := category.Deactivate(); err != nil {
		return nil, nil, err
	}
	next.user[i] = category
	return next, &category, nil
}

func (t *Taxonomy) findSystem(name string) (Category, bool) {
	key := foldName(name)
	if key == "" {
		return Category{}, false
	}
	for _, c := range t.system {
		if foldName(c.Name) == key {
			return c, true
		}
	}
	return Category{}, false
}

func (t *Taxonomy) findUser(name string) int {
	key := foldName(name)
	if key == "" {
		return -1
	}
	for i, c := range t.user {
		if foldName(c.Name) == key {
			return i
		}
	}
	return -1
}

func (t *Taxonomy) clone() *Taxonomy {
	next := &Taxonomy{
		system:        t.system,
		user:          make([]Category, len(t.user), len(t.user)+1),
		uncategorized: t.uncategorized,
	}
	copy(next.user, t.user)
	return next
}

// foldName normalizes a category name for case-insensitive comparison.
// cases.Caser is stateful, so a fresh one is used per call.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
