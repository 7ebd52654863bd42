package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names raised by Budget
const (
	EventTypeBudgetCreated          = "BudgetCreated"
	EventTypeBudgetThresholdReached = "BudgetThresholdReached"

	aggregateTypeBudget = "Budget"
)

// BudgetCreatedEvent is raised when a budget is created
type BudgetCreatedEvent struct {
	shared.BaseDomainEvent
	BudgetID  uuid.UUID       `json:"budget_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Currency  string          `json:"currency"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
}

// NewBudgetCreatedEvent creates a new BudgetCreatedEvent
func NewBudgetCreatedEvent(b *Budget) *BudgetCreatedEvent {
	return &BudgetCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetCreated, aggregateTypeBudget, b.ID, b.UserID),
		BudgetID:        b.ID,
		Name:            b.Name,
		Category:        b.Category,
		Limit:           b.Limit.Amount(),
		Currency:        b.Limit.Currency().String(),
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
	}
}

// BudgetThresholdReachedEvent is raised when spending crosses the alert threshold
type BudgetThresholdReachedEvent struct {
	shared.BaseDomainEvent
	BudgetID       uuid.UUID       `json:"budget_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Spent          decimal.Decimal `json:"spent"`
	Limit          decimal.Decimal `json:"limit"`
	Currency       string          `json:"currency"`
	PercentageUsed decimal.Decimal `json:"percentage_used"`
	AlertThreshold decimal.Decimal `json:"alert_threshold"`
	IsOverBudget   bool            `json:"is_over_budget"`
}

// NewBudgetThresholdReachedEvent creates a new BudgetThresholdReachedEvent
func NewBudgetThresholdReachedEvent(b *Budget, u Utilization) *BudgetThresholdReachedEvent {
	return &BudgetThresholdReachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetThresholdReached, aggregateTypeBudget, b.ID, b.UserID),
		BudgetID:        b.ID,
		Name:            b.Name,
		Category:        b.Category,
		Spent:           u.Spent.Amount(),
		Limit:           u.Limit.Amount(),
		Currency:        u.Limit.Currency().String(),
		PercentageUsed:  u.PercentageUsed,
		AlertThreshold:  b.AlertThreshold,
		IsOverBudget:    u.IsOverBudget,
	}
}
