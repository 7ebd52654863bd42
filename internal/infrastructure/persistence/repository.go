package persistence

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type versionedModel interface {
	SetVersion(v int)
}

// saveVersioned writes model guarded by the version it was loaded at. The
// stored version is bumped on update. When no row matches, an existing ID
// means a concurrent writer won and a missing ID means the row is new.
// It reports whether an update (rather than an insert) happened.
func saveVersioned(db *gorm.DB, model versionedModel, empty any, id uuid.UUID, version int) (bool, error) {
	model.SetVersion(version + 1)
	result := db.Model(model).
		Where("version = ?", version).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := db.Model(empty).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, shared.NewDomainErrorf(shared.CodeConcurrencyConflict,
			"Record %s was modified concurrently", id)
	}

	model.SetVersion(version)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return false, err
	}
	return false, nil
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// deleteByID removes a row and reports shared.ErrNotFound when nothing matched
func deleteByID(db *gorm.DB, model any, id uuid.UUID) error {
	result := db.Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func existsByID(db *gorm.DB, model any, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// paginate applies a whitelisted ORDER BY plus LIMIT/OFFSET from a filter
func paginate(query *gorm.DB, f shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	query = query.Order(fmt.Sprintf("%s %s", field, ValidateSortOrder(f.OrderDir)))
	if field != "id" {
		query = query.Order("id ASC")
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = shared.DefaultFilter().PageSize
	}
	return query.Limit(pageSize).Offset(shared.Filter{Page: f.Page, PageSize: pageSize}.Offset())
}

func likePattern(search string) string {
	return "%" + escapeLike(search) + "%"
}
