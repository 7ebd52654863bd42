package models

import (
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BudgetModel is the persistence model for the Budget aggregate root
type BudgetModel struct {
	OwnedAggregateModel
	Name               string               `gorm:"type:varchar(200);not null"`
	Description        string               `gorm:"type:text"`
	LimitAmount        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency           string               `gorm:"type:varchar(3);not null"`
	Category           string               `gorm:"type:varchar(100);not null;index:idx_budget_user_category"`
	StartDate          time.Time            `gorm:"not null"`
	EndDate            time.Time            `gorm:"not null"`
	Recurrence         finance.BudgetPeriod `gorm:"type:varchar(20)"`
	AlertThreshold     decimal.Decimal      `gorm:"type:decimal(5,2);not null"`
	ThresholdAlertedAt *time.Time
	IsActive           bool     `gorm:"not null;default:true"`
	Tags               []string `gorm:"type:text;serializer:json"`
	Color              string   `gorm:"type:varchar(20)"`
	Icon               string   `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the persistence model to a domain Budget
func (m *BudgetModel) ToDomain() (*finance.Budget, error) {
	limit, err := valueobject.NewMoney(m.LimitAmount, m.Currency)
	if err != nil {
		return nil, err
	}
	return &finance.Budget{
		OwnedAggregateRoot: m.ToOwned(),
		Name:               m.Name,
		Description:        m.Description,
		Limit:              limit,
		Category:           m.Category,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		Recurrence:         m.Recurrence,
		AlertThreshold:     m.AlertThreshold,
		ThresholdAlertedAt: m.ThresholdAlertedAt,
		IsActive:           m.IsActive,
		Tags:               m.Tags,
		Color:              m.Color,
		Icon:               m.Icon,
	}, nil
}

// BudgetModelFromDomain creates a persistence model from a domain Budget
func BudgetModelFromDomain(b *finance.Budget) *BudgetModel {
	m := &BudgetModel{
		Name:               b.Name,
		Description:        b.Description,
		LimitAmount:        b.Limit.Amount(),
		Currency:           b.Limit.Currency().String(),
		Category:           b.Category,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		Recurrence:         b.Recurrence,
		AlertThreshold:     b.AlertThreshold,
		ThresholdAlertedAt: b.ThresholdAlertedAt,
		IsActive:           b.IsActive,
		Tags:               b.Tags,
		Color:              b.Color,
		Icon:               b.Icon,
	}
	m.FromDomainOwned(b.OwnedAggregateRoot)
	return m
}
