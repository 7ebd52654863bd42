package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements finance.InvoiceRepository using GORM.
// Line items are stored in their own table and rewritten on every save.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withItems(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain()
}

// FindByUser finds a page of a user's invoices
func (r *GormInvoiceRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter finance.InvoiceFilter) ([]*finance.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(LOWER(client_name) LIKE ? ESCAPE '\' OR LOWER(invoice_number) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	query = paginate(query, filter.Filter, InvoiceSortFields, "issue_date")
	if err := query.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	invoices, err := invoicesToDomain(rows)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// FindOverdue finds the user's sent invoices due before now
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*finance.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.withItems(ctx).
		Where("user_id = ? AND status = ? AND due_date < ?", userID, finance.InvoiceStatusSent, now).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows)
}

// ExistsByNumber checks whether an invoice number is taken
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LastSequenceForYear returns the highest sequence among INV-<year>-NNNN
// numbers, or 0 when the year has none
func (r *GormInvoiceRepository) LastSequenceForYear(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &numbers).Error; err != nil {
		return 0, err
	}

	last := 0
	for _, n := range numbers {
		seq, err := finance.ParseSequenceNumber(n, year)
		if err != nil {
			continue
		}
		last = max(last, seq)
	}
	return last, nil
}

// Save creates or updates an invoice and its line items with optimistic locking
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	var updated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = saveVersioned(tx, model, &models.InvoiceModel{}, invoice.ID, invoice.Version)
		if err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineItemModel{}).Error; err != nil {
			return err
		}
		if len(model.LineItems) == 0 {
			return nil
		}
		return tx.Create(&model.LineItems).Error
	})
	if err != nil {
		return err
	}
	if updated {
		invoice.IncrementVersion()
	}
	return nil
}

// Delete removes an invoice and its line items
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLineItemModel{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.InvoiceModel{}, id)
	})
}

// Exists checks whether an invoice exists
func (r *GormInvoiceRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(r.db.WithContext(ctx), &models.InvoiceModel{}, id)
}

func invoicesToDomain(rows []models.InvoiceModel) ([]*finance.Invoice, error) {
	out := make([]*finance.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
