package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements finance.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	c := model.ToDomain()
	return &c, nil
}

// FindByUser finds all categories of a user, active or not
func (r *GormCategoryRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]finance.Category, error) {
	var rows []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sort_order ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.Category, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// ExistsByName checks whether the user already has a category called name
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CategoryModel{}).
		Where("user_id = ? AND LOWER(name) = ?", userID, normalizeKey(name)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *finance.Category) error {
	updated, err := saveVersioned(r.db.WithContext(ctx), models.CategoryModelFromDomain(category),
		&models.CategoryModel{}, category.ID, category.Version)
	if err != nil {
		return err
	}
	if updated {
		category.IncrementVersion()
	}
	return nil
}

var _ finance.CategoryRepository = (*GormCategoryRepository)(nil)
