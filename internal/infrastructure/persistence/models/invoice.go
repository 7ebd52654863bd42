package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	OwnedAggregateModel
	InvoiceNumber    string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientName       string                `gorm:"type:varchar(200);not null"`
	ClientEmail      string                `gorm:"type:varchar(200);not null"`
	ClientAddress    string                `gorm:"type:text"`
	IssueDate        time.Time             `gorm:"not null"`
	DueDate          time.Time             `gorm:"not null;index"`
	Currency         string                `gorm:"type:varchar(3);not null"`
	TaxRate          decimal.Decimal       `gorm:"type:decimal(7,4);not null"`
	Notes            string                `gorm:"type:text"`
	Status           finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	PaidDate         *time.Time
	PaymentMethod    string                 `gorm:"type:varchar(50)"`
	PaymentReference string                 `gorm:"type:varchar(200)"`
	LineItems        []InvoiceLineItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineItemModel is the persistence model for an invoice line item.
// Position keeps the line order stable across loads.
type InvoiceLineItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineItemModel) TableName() string {
	return "invoice_line_items"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() (*finance.Invoice, error) {
	currency, err := valueobject.ParseCurrency(m.Currency)
	if err != nil {
		return nil, err
	}
	inv := &finance.Invoice{
		OwnedAggregateRoot: m.ToOwned(),
		Number:             m.InvoiceNumber,
		ClientName:         m.ClientName,
		ClientEmail:        m.ClientEmail,
		ClientAddress:      m.ClientAddress,
		IssueDate:          m.IssueDate,
		DueDate:            m.DueDate,
		Currency:           currency,
		TaxRate:            m.TaxRate,
		Notes:              m.Notes,
		Status:             m.Status,
		PaidDate:           m.PaidDate,
		PaymentMethod:      m.PaymentMethod,
		PaymentReference:   m.PaymentReference,
	}

	items := make([]finance.LineItem, 0, len(m.LineItems))
	for _, li := range m.LineItems {
		price, err := valueobject.NewMoney(li.UnitPrice, m.Currency)
		if err != nil {
			return nil, err
		}
		items = append(items, finance.LineItem{
			ID:          li.ID,
			Description: li.Description,
			UnitPrice:   price,
			Quantity:    li.Quantity,
		})
	}
	inv.LoadLineItems(items)
	return inv, nil
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(i *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber:    i.Number,
		ClientName:       i.ClientName,
		ClientEmail:      i.ClientEmail,
		ClientAddress:    i.ClientAddress,
		IssueDate:        i.IssueDate,
		DueDate:          i.DueDate,
		Currency:         i.Currency.String(),
		TaxRate:          i.TaxRate,
		Notes:            i.Notes,
		Status:           i.Status,
		PaidDate:         i.PaidDate,
		PaymentMethod:    i.PaymentMethod,
		PaymentReference: i.PaymentReference,
	}
	m.FromDomainOwned(i.OwnedAggregateRoot)

	for pos, li := range i.LineItems() {
		m.LineItems = append(m.LineItems, InvoiceLineItemModel{
			ID:          li.ID,
			InvoiceID:   i.ID,
			Position:    pos,
			Description: li.Description,
			UnitPrice:   li.UnitPrice.Amount(),
			Quantity:    li.Quantity,
		})
	}
	return m
}
