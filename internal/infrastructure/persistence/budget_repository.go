package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBudgetRepository implements finance.BudgetRepository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// FindByID finds a budget by ID
func (r *GormBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain()
}

// FindByUser finds a page of a user's budgets
func (r *GormBudgetRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter finance.BudgetFilter) ([]*finance.Budget, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BudgetModel{}).Where("user_id = ?", userID)
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", normalizeKey(filter.Category))
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.BudgetModel
	if err := paginate(query, filter.Filter, BudgetSortFields, "start_date").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	budgets, err := budgetsToDomain(rows)
	if err != nil {
		return nil, 0, err
	}
	return budgets, total, nil
}

// FindOverlapping finds active budgets of the user in category whose
// half-open window intersects r
func (r *GormBudgetRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, category string, window valueobject.DateRange) ([]*finance.Budget, error) {
	var rows []models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(category) = ? AND is_active = ?", userID, normalizeKey(category), true).
		Where("start_date < ? AND end_date > ?", window.End(), window.Start()).
		Order("start_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return budgetsToDomain(rows)
}

// Save creates or updates a budget with optimistic locking
func (r *GormBudgetRepository) Save(ctx context.Context, budget *finance.Budget) error {
	updated, err := saveVersioned(r.db.WithContext(ctx), models.BudgetModelFromDomain(budget),
		&models.BudgetModel{}, budget.ID, budget.Version)
	if err != nil {
		return err
	}
	if updated {
		budget.IncrementVersion()
	}
	return nil
}

// Delete removes a budget
func (r *GormBudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &models.BudgetModel{}, id)
}

// Exists checks whether a budget exists
func (r *GormBudgetRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(r.db.WithContext(ctx), &models.BudgetModel{}, id)
}

func budgetsToDomain(rows []models.BudgetModel) ([]*finance.Budget, error) {
	out := make([]*finance.Budget, 0, len(rows))
	for i := range rows {
		b, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

var _ finance.BudgetRepository = (*GormBudgetRepository)(nil)
