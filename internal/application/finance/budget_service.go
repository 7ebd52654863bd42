package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BudgetService provides application-level budget operations
type BudgetService struct {
	uow       UnitOfWork
	taxonomy  *finance.Taxonomy
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(uow UnitOfWork, taxonomy *finance.Taxonomy, publisher shared.EventPublisher, logger *zap.Logger) *BudgetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetService{
		uow:       uow,
		taxonomy:  taxonomy,
		publisher: publisher,
		logger:    logger,
	}
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Category           string          `json:"category"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	Recurrence         string          `json:"recurrence,omitempty"`
	AlertThreshold     decimal.Decimal `json:"alert_threshold"`
	ThresholdAlertedAt *time.Time      `json:"threshold_alerted_at,omitempty"`
	IsActive           bool            `json:"is_active"`
	Tags               []string        `json:"tags"`
	Color              string          `json:"color,omitempty"`
	Icon               string          `json:"icon,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

// BudgetPerformanceResponse reports how much of a budget has been spent
type BudgetPerformanceResponse struct {
	BudgetID         uuid.UUID       `json:"budget_id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	Currency         string          `json:"currency"`
	Limit            decimal.Decimal `json:"limit"`
	Spent            decimal.Decimal `json:"spent"`
	Remaining        decimal.Decimal `json:"remaining"`
	PercentageUsed   decimal.Decimal `json:"percentage_used"`
	IsOverBudget     bool            `json:"is_over_budget"`
	ThresholdReached bool            `json:"threshold_reached"`
	ExpenseCount     int             `json:"expense_count"`
	DaysRemaining    int             `json:"days_remaining"`
}

// CreateBudgetRequest represents a request to create a budget
type CreateBudgetRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=500"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Category    string          `json:"category" binding:"required"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     time.Time       `json:"end_date" binding:"required"`
	Recurrence  string          `json:"recurrence" binding:"omitempty,oneof=weekly monthly quarterly yearly"`
	Color       string          `json:"color"`
	Icon        string          `json:"icon"`
	Tags        []string        `json:"tags"`
}

// UpdateBudgetRequest represents a request to update a budget
type UpdateBudgetRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description" binding:"max=500"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Category    string          `json:"category" binding:"required"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     time.Time       `json:"end_date" binding:"required"`
}

// BudgetListFilter defines filtering options for budget list queries
type BudgetListFilter struct {
	Category   string `form:"category"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir"`
}

// Create creates a budget after checking it does not overlap another active
// budget of the same category
func (s *BudgetService) Create(ctx context.Context, userID uuid.UUID, req CreateBudgetRequest) (*BudgetResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "create",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()))
	defer span.End()

	limit, err := valueobject.NewMoney(req.Amount, currencyOrDefault(req.Currency))
	if err != nil {
		return nil, err
	}
	window, err := valueobject.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	opts := []finance.BudgetOption{
		finance.WithBudgetDescription(req.Description),
		finance.WithBudgetAppearance(req.Color, req.Icon),
		finance.WithBudgetTags(req.Tags...),
	}
	if req.Recurrence != "" {
		period, err := finance.ParseBudgetPeriod(req.Recurrence)
		if err != nil {
			return nil, err
		}
		opts = append(opts, finance.WithRecurrence(period))
	}
	taxonomy, err := s.taxonomyFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	budget, err := finance.NewBudget(userID, req.Name, limit, taxonomy.FindByName(req.Category).Name, window, opts...)
	if err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		existing, err := repos.Budgets().FindOverlapping(ctx, userID, budget.Category, window)
		if err != nil {
			return err
		}
		if err := budget.EnsureNoOverlap(existing); err != nil {
			return err
		}
		return repos.Budgets().Save(ctx, budget)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBudgetID, budget.ID.String(), telemetry.SpanAttrCategory, budget.Category)
	s.logger.Info("budget created",
		zap.String("budget_id", budget.ID.String()),
		zap.String("category", budget.Category),
		zap.String("limit", limit.String()))

	publishEvents(ctx, s.publisher, s.logger, budget)
	return toBudgetResponse(budget), nil
}

// Update replaces the editable fields of a budget and re-checks overlap
func (s *BudgetService) Update(ctx context.Context, userID, budgetID uuid.UUID, req UpdateBudgetRequest) (*BudgetResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "update")
	defer span.End()

	limit, err := valueobject.NewMoney(req.Amount, currencyOrDefault(req.Currency))
	if err != nil {
		return nil, err
	}
	window, err := valueobject.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	taxonomy, err := s.taxonomyFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	category := taxonomy.FindByName(req.Category).Name

	budget, err := s.mutate(ctx, userID, budgetID, func(repos Repositories, b *finance.Budget) error {
		if err := b.UpdateDetails(finance.BudgetDetails{
			Name:        req.Name,
			Description: req.Description,
			Limit:       limit,
			Category:    category,
			Window:      window,
		}); err != nil {
			return err
		}
		existing, err := repos.Budgets().FindOverlapping(ctx, userID, b.Category, b.Window())
		if err != nil {
			return err
		}
		return b.EnsureNoOverlap(existing)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toBudgetResponse(budget), nil
}

// SetAlertThreshold changes the percentage at which threshold alerts fire
func (s *BudgetService) SetAlertThreshold(ctx context.Context, userID, budgetID uuid.UUID, pct decimal.Decimal) (*BudgetResponse, error) {
	budget, err := s.mutate(ctx, userID, budgetID, func(_ Repositories, b *finance.Budget) error {
		return b.SetAlertThreshold(pct)
	})
	if err != nil {
		return nil, err
	}
	return toBudgetResponse(budget), nil
}

// SetRecurrence changes the recurrence pattern of a budget
func (s *BudgetService) SetRecurrence(ctx context.Context, userID, budgetID uuid.UUID, recurrence string) (*BudgetResponse, error) {
	period, err := finance.ParseBudgetPeriod(recurrence)
	if err != nil {
		return nil, err
	}
	budget, err := s.mutate(ctx, userID, budgetID, func(_ Repositories, b *finance.Budget) error {
		return b.SetRecurrence(period)
	})
	if err != nil {
		return nil, err
	}
	return toBudgetResponse(budget), nil
}

// RemoveRecurrence makes a budget one-off
func (s *BudgetService) RemoveRecurrence(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.mutate(ctx, userID, budgetID, func(_ Repositories, b *finance.Budget) error {
		b.RemoveRecurrence()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toBudgetResponse(budget), nil
}

// Deactivate stops a budget from counting in overlap checks and alerts
func (s *BudgetService) Deactivate(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.mutate(ctx, userID, budgetID, func(_ Repositories, b *finance.Budget) error {
		b.Deactivate()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("budget deactivated", zap.String("budget_id", budgetID.String()))
	return toBudgetResponse(budget), nil
}

// Delete removes a budget. Its expenses are untouched.
func (s *BudgetService) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrBudgetID, budgetID.String()))
	defer span.End()

	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		found, err := repos.Budgets().FindByID(ctx, budgetID)
		budget, err := checkOwnership(found, err, userID, "Budget")
		if err != nil {
			return err
		}
		return repos.Budgets().Delete(ctx, budget.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("budget deleted", zap.String("budget_id", budgetID.String()))
	return nil
}

// Get returns one of the user's budgets
func (s *BudgetService) Get(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetResponse, error) {
	found, err := s.uow.Budgets().FindByID(ctx, budgetID)
	budget, err := checkOwnership(found, err, userID, "Budget")
	if err != nil {
		return nil, err
	}
	return toBudgetResponse(budget), nil
}

// ListByUser lists the user's budgets
func (s *BudgetService) ListByUser(ctx context.Context, userID uuid.UUID, filter BudgetListFilter) (shared.Paginated[BudgetResponse], error) {
	domainFilter := finance.BudgetFilter{
		Category:   filter.Category,
		ActiveOnly: filter.ActiveOnly,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	normalizePage(&domainFilter.Filter)

	budgets, total, err := s.uow.Budgets().FindByUser(ctx, userID, domainFilter)
	if err != nil {
		return shared.Paginated[BudgetResponse]{}, err
	}
	items := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		items[i] = *toBudgetResponse(b)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Performance computes how much of the budget has been spent. The first
// read that finds the alert threshold reached records the alert on the
// budget and publishes BudgetThresholdReached; later reads stay silent until
// spending drops back below the threshold.
func (s *BudgetService) Performance(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetPerformanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "budget", "performance",
		telemetry.WithAttribute(telemetry.SpanAttrBudgetID, budgetID.String()))
	defer span.End()

	found, err := s.uow.Budgets().FindByID(ctx, budgetID)
	budget, err := checkOwnership(found, err, userID, "Budget")
	if err != nil {
		return nil, err
	}

	expenses, err := s.uow.Expenses().FindByUserAndCategory(ctx, userID, budget.Category)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	utilization, err := budget.ComputeUtilization(expenses)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if budget.RecordThresholdAlert(utilization, time.Now()) {
		s.saveAlertState(ctx, budget, utilization)
	}

	return &BudgetPerformanceResponse{
		BudgetID:         budget.ID,
		Name:             budget.Name,
		Category:         budget.Category,
		Currency:         budget.Limit.Currency().String(),
		Limit:            utilization.Limit.Amount(),
		Spent:            utilization.Spent.Amount(),
		Remaining:        utilization.Remaining.Amount(),
		PercentageUsed:   utilization.PercentageUsed,
		IsOverBudget:     utilization.IsOverBudget,
		ThresholdReached: utilization.ThresholdReached,
		ExpenseCount:     utilization.ExpenseCount,
		DaysRemaining:    daysRemaining(budget.EndDate, time.Now()),
	}, nil
}

// saveAlertState persists a changed alert marker and publishes its events.
// A failed save only drops the events: the read still succeeds and a
// concurrent reader that won the version race has already sent the alert.
func (s *BudgetService) saveAlertState(ctx context.Context, budget *finance.Budget, u finance.Utilization) {
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.Budgets().Save(ctx, budget)
	})
	if err != nil {
		budget.ClearDomainEvents()
		s.logger.Warn("failed to record budget alert state",
			zap.String("budget_id", budget.ID.String()),
			zap.Error(err))
		return
	}
	if budget.ThresholdAlertedAt != nil {
		s.logger.Warn("budget threshold reached",
			zap.String("budget_id", budget.ID.String()),
			zap.String("percentage_used", u.PercentageUsed.String()),
			zap.String("alert_threshold", budget.AlertThreshold.String()))
	}
	publishEvents(ctx, s.publisher, s.logger, budget)
}

func (s *BudgetService) mutate(ctx context.Context, userID, budgetID uuid.UUID, fn func(Repositories, *finance.Budget) error) (*finance.Budget, error) {
	var budget *finance.Budget
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		found, err := repos.Budgets().FindByID(ctx, budgetID)
		b, err := checkOwnership(found, err, userID, "Budget")
		if err != nil {
			return err
		}
		if err := fn(repos, b); err != nil {
			return err
		}
		if err := repos.Budgets().Save(ctx, b); err != nil {
			return err
		}
		budget = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, s.logger, budget)
	return budget, nil
}

func (s *BudgetService) taxonomyFor(ctx context.Context, userID uuid.UUID) (*finance.Taxonomy, error) {
	categories, err := s.uow.Categories().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.taxonomy.WithUserCategories(categories), nil
}

func daysRemaining(end, now time.Time) int {
	if !now.Before(end) {
		return 0
	}
	return int(end.Sub(now).Hours() / 24)
}

func toBudgetResponse(b *finance.Budget) *BudgetResponse {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return &BudgetResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		Name:               b.Name,
		Description:        b.Description,
		Amount:             b.Limit.Amount(),
		Currency:           b.Limit.Currency().String(),
		Category:           b.Category,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		Recurrence:         b.Recurrence.String(),
		AlertThreshold:     b.AlertThreshold,
		ThresholdAlertedAt: b.ThresholdAlertedAt,
		IsActive:           b.IsActive,
		Tags:               tags,
		Color:              b.Color,
		Icon:               b.Icon,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
}
