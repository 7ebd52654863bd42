package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain()
}

// FindByUser finds a page of a user's expenses
func (r *GormExpenseRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) ([]*finance.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("user_id = ?", userID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", normalizeKey(filter.Category))
	}
	if filter.FromDate != nil {
		query = query.Where("expense_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("expense_date < ?", *filter.ToDate)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(LOWER(description) LIKE ? ESCAPE '\' OR LOWER(merchant_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExpenseModel
	if err := paginate(query, filter.Filter, ExpenseSortFields, "expense_date").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	expenses, err := expensesToDomain(rows)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// FindByUserAndCategory finds all of a user's expenses in a category
func (r *GormExpenseRepository) FindByUserAndCategory(ctx context.Context, userID uuid.UUID, category string) ([]*finance.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(category) = ?", userID, normalizeKey(category)).
		Order("expense_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return expensesToDomain(rows)
}

// Save creates or updates an expense with optimistic locking
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	updated, err := saveVersioned(r.db.WithContext(ctx), models.ExpenseModelFromDomain(expense),
		&models.ExpenseModel{}, expense.ID, expense.Version)
	if err != nil {
		return err
	}
	if updated {
		expense.IncrementVersion()
	}
	return nil
}

// Delete removes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &models.ExpenseModel{}, id)
}

// Exists checks whether an expense exists
func (r *GormExpenseRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(r.db.WithContext(ctx), &models.ExpenseModel{}, id)
}

func expensesToDomain(rows []models.ExpenseModel) ([]*finance.Expense, error) {
	out := make([]*finance.Expense, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
