package models

import (
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for the Expense aggregate root
type ExpenseModel struct {
	OwnedAggregateModel
	Description       string          `gorm:"type:varchar(500);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	Category          string          `gorm:"type:varchar(100);not null;index"`
	ExpenseDate       time.Time       `gorm:"not null;index"`
	Notes             string          `gorm:"type:text"`
	MerchantName      string          `gorm:"type:varchar(200)"`
	PaymentMethod     string          `gorm:"type:varchar(50)"`
	ReceiptURL        string          `gorm:"type:varchar(1000)"`
	IsReimbursable    bool            `gorm:"not null;default:false"`
	IsReimbursed      bool            `gorm:"not null;default:false"`
	ReimbursedAt      *time.Time
	Status            finance.ExpenseStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	RejectionReason   string                `gorm:"type:text"`
	SubmittedAt       *time.Time
	ReviewedAt        *time.Time
	IsAiCategorized   bool     `gorm:"not null;default:false"`
	AiConfidenceScore float64  `gorm:"not null;default:0"`
	ExtractedText     string   `gorm:"type:text"`
	Tags              []string `gorm:"type:text;serializer:json"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() (*finance.Expense, error) {
	amount, err := valueobject.NewMoney(m.Amount, m.Currency)
	if err != nil {
		return nil, err
	}
	return &finance.Expense{
		OwnedAggregateRoot: m.ToOwned(),
		Description:        m.Description,
		Amount:             amount,
		Category:           m.Category,
		ExpenseDate:        m.ExpenseDate,
		Notes:              m.Notes,
		MerchantName:       m.MerchantName,
		PaymentMethod:      m.PaymentMethod,
		ReceiptURL:         m.ReceiptURL,
		IsReimbursable:     m.IsReimbursable,
		IsReimbursed:       m.IsReimbursed,
		ReimbursedAt:       m.ReimbursedAt,
		Status:             m.Status,
		RejectionReason:    m.RejectionReason,
		SubmittedAt:        m.SubmittedAt,
		ReviewedAt:         m.ReviewedAt,
		IsAiCategorized:    m.IsAiCategorized,
		AiConfidenceScore:  m.AiConfidenceScore,
		ExtractedText:      m.ExtractedText,
		Tags:               m.Tags,
	}, nil
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Description:       e.Description,
		Amount:            e.Amount.Amount(),
		Currency:          e.Amount.Currency().String(),
		Category:          e.Category,
		ExpenseDate:       e.ExpenseDate,
		Notes:             e.Notes,
		MerchantName:      e.MerchantName,
		PaymentMethod:     e.PaymentMethod,
		ReceiptURL:        e.ReceiptURL,
		IsReimbursable:    e.IsReimbursable,
		IsReimbursed:      e.IsReimbursed,
		ReimbursedAt:      e.ReimbursedAt,
		Status:            e.Status,
		RejectionReason:   e.RejectionReason,
		SubmittedAt:       e.SubmittedAt,
		ReviewedAt:        e.ReviewedAt,
		IsAiCategorized:   e.IsAiCategorized,
		AiConfidenceScore: e.AiConfidenceScore,
		ExtractedText:     e.ExtractedText,
		Tags:              e.Tags,
	}
	m.FromDomainOwned(e.OwnedAggregateRoot)
	return m
}
