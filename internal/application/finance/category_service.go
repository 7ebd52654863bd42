package finance

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CategoryService manages the category taxonomy of each user
type CategoryService struct {
	uow      UnitOfWork
	taxonomy *finance.Taxonomy
	logger   *zap.Logger
}

// NewCategoryService creates a new CategoryService around the system taxonomy
func NewCategoryService(uow UnitOfWork, taxonomy *finance.Taxonomy, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{uow: uow, taxonomy: taxonomy, logger: logger}
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	IsSystem    bool      `json:"is_system"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
}

// CreateCategoryRequest represents a request to register a user category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	Icon        string `json:"icon" binding:"max=50"`
}

// UpdateCategoryRequest represents a request to change a user category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	Icon        string `json:"icon" binding:"max=50"`
}

// List returns the system categories followed by the user's active categories
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]CategoryResponse, error) {
	taxonomy, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := taxonomy.ActiveCategories()
	out := make([]CategoryResponse, len(active))
	for i := range active {
		out[i] = toCategoryResponse(&active[i])
	}
	return out, nil
}

// Create registers a new user category. Names of system categories are
// RESERVED_NAME and names the user already has are DUPLICATE_NAME.
func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "category", "create",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()))
	defer span.End()

	var created *finance.Category
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		existing, err := repos.Categories().FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		_, category, err := s.taxonomy.WithUserCategories(existing).Register(userID, req.Name, req.Description, req.Color, req.Icon)
		if err != nil {
			return err
		}
		if err := repos.Categories().Save(ctx, category); err != nil {
			return err
		}
		created = category
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("category created",
		zap.String("category_id", created.ID.String()),
		zap.String("name", created.Name))
	resp := toCategoryResponse(created)
	return &resp, nil
}

// Update changes a user category. Renaming onto a system category or another
// user category fails the same way Create does.
func (s *CategoryService) Update(ctx context.Context, userID uuid.UUID, name string, req UpdateCategoryRequest) (*CategoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "category", "update")
	defer span.End()

	var updated *finance.Category
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		existing, err := repos.Categories().FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		taxonomy := s.taxonomy.WithUserCategories(existing)
		if sys, ok := taxonomy.Lookup(name); ok && sys.IsSystem {
			return shared.NewDomainErrorf(shared.CodeSystemCategoryProtected, "System category %s cannot be modified", sys.Name)
		}

		category := findUserCategory(existing, name)
		if category == nil {
			return shared.NewDomainErrorf(shared.CodeNotFound, "Category %s not found", strings.TrimSpace(name))
		}
		if !category.Matches(req.Name) {
			if target, ok := taxonomy.Lookup(req.Name); ok && target.IsSystem {
				return shared.NewDomainErrorf(shared.CodeReservedName, "Category name %s is reserved for a system category", target.Name)
			}
			if findUserCategory(existing, req.Name) != nil {
				return shared.NewDomainErrorf(shared.CodeDuplicateName, "Category %s already exists", strings.TrimSpace(req.Name))
			}
		}
		if err := category.Update(req.Name, req.Description, req.Color, req.Icon); err != nil {
			return err
		}
		if err := repos.Categories().Save(ctx, category); err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := toCategoryResponse(updated)
	return &resp, nil
}

// Deactivate soft-deletes a user category. Expenses keep the name they were
// filed under.
func (s *CategoryService) Deactivate(ctx context.Context, userID uuid.UUID, name string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "category", "deactivate")
	defer span.End()

	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		existing, err := repos.Categories().FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		_, category, err := s.taxonomy.WithUserCategories(existing).Deactivate(name)
		if err != nil {
			return err
		}
		return repos.Categories().Save(ctx, category)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("category deactivated", zap.String("name", name), zap.String("user_id", userID.String()))
	return nil
}

// Resolve maps a name to the user's category, falling back to Uncategorized
func (s *CategoryService) Resolve(ctx context.Context, userID uuid.UUID, name string) (*CategoryResponse, error) {
	taxonomy, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	category := taxonomy.FindByName(name)
	resp := toCategoryResponse(&category)
	return &resp, nil
}

func (s *CategoryService) load(ctx context.Context, userID uuid.UUID) (*finance.Taxonomy, error) {
	categories, err := s.uow.Categories().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.taxonomy.WithUserCategories(categories), nil
}

func findUserCategory(categories []finance.Category, name string) *finance.Category {
	for i := range categories {
		if !categories[i].IsSystem && categories[i].Matches(name) {
			return &categories[i]
		}
	}
	return nil
}

func toCategoryResponse(c *finance.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		IsSystem:    c.IsSystem,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
	}
}
