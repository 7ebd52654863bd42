package finance

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const (
	maxBudgetNameLength        = 200
	maxBudgetDescriptionLength = 500

	// Scale of the alert_threshold column
	maxAlertThresholdScale = 2
)

// DefaultAlertThreshold is the utilization percentage at which a budget alerts
var DefaultAlertThreshold = decimal.NewFromInt(80)

var hundred = decimal.NewFromInt(100)

// BudgetPeriod is the recurrence pattern of a budget
type BudgetPeriod string

const (
	BudgetPeriodNone      BudgetPeriod = ""
	BudgetPeriodWeekly    BudgetPeriod = "weekly"
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// IsValid checks if the period is one of the recurrence patterns
func (p BudgetPeriod) IsValid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodYearly:
		return true
	}
	return false
}

// String returns the string representation of BudgetPeriod
func (p BudgetPeriod) String() string {
	return string(p)
}

// Next returns the start of the period following t
func (p BudgetPeriod) Next(t time.Time) time.Time {
	switch p {
	case BudgetPeriodWeekly:
		return t.AddDate(0, 0, 7)
	case BudgetPeriodMonthly:
		return t.AddDate(0, 1, 0)
	case BudgetPeriodQuarterly:
		return t.AddDate(0, 3, 0)
	case BudgetPeriodYearly:
		return t.AddDate(1, 0, 0)
	}
	return t
}

// ParseBudgetPeriod parses a period name case-insensitively.
// An empty string means monthly.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BudgetPeriodMonthly, nil
	}
	p := BudgetPeriod(s)
	if !p.IsValid() {
		return BudgetPeriodNone, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Unknown budget period %q", s)
	}
	return p, nil
}

// Budget is a spending limit for one category over a half-open date window.
// Spent and remaining amounts are never stored; see ComputeUtilization.
type Budget struct {
	shared.OwnedAggregateRoot
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Limit          valueobject.Money `json:"limit"`
	Category       string            `json:"category"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	Recurrence     BudgetPeriod      `json:"recurrence"`
	AlertThreshold decimal.Decimal   `json:"alert_threshold"`
	// ThresholdAlertedAt is set once BudgetThresholdReached has been raised
	// and cleared when utilization drops back below the threshold.
	ThresholdAlertedAt *time.Time `json:"threshold_alerted_at,omitempty"`
	IsActive           bool       `json:"is_active"`
	Tags               []string   `json:"tags"`
	Color              string     `json:"color"`
	Icon               string     `json:"icon"`
}

// BudgetOption sets optional fields on a new budget
type BudgetOption func(*Budget) error

// WithBudgetDescription sets the description
func WithBudgetDescription(description string) BudgetOption {
	return func(b *Budget) error {
		description = strings.TrimSpace(description)
		if utf8.RuneCountInString(description) > maxBudgetDescriptionLength {
			return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Budget description cannot exceed %d characters", maxBudgetDescriptionLength)
		}
		b.Description = description
		return nil
	}
}

// WithRecurrence sets the recurrence pattern
func WithRecurrence(period BudgetPeriod) BudgetOption {
	return func(b *Budget) error {
		return b.setRecurrence(period)
	}
}

// WithBudgetAppearance sets the display colour and icon
func WithBudgetAppearance(color, icon string) BudgetOption {
	return func(b *Budget) error {
		color = strings.TrimSpace(color)
		if color != "" && !hexColorPattern.MatchString(color) {
			return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Budget color %q must be a hex value like #3B82F6", color)
		}
		b.Color = strings.ToUpper(color)
		b.Icon = strings.TrimSpace(icon)
		return nil
	}
}

// WithBudgetTags attaches normalized tags
func WithBudgetTags(tags ...string) BudgetOption {
	return func(b *Budget) error {
		for _, tag := range tags {
			if n := normalizeTag(tag); n != "" && !slices.Contains(b.Tags, n) {
				b.Tags = append(b.Tags, n)
			}
		}
		return nil
	}
}

// NewBudget creates an active budget. Overlap with existing budgets is
// checked separately through EnsureNoOverlap before persisting.
func NewBudget(
	userID uuid.UUID,
	name string,
	limit valueobject.Money,
	category string,
	window valueobject.DateRange,
	opts ...BudgetOption,
) (*Budget, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "User ID cannot be empty")
	}
	name, category, err := validateBudgetDetails(name, limit, category, window)
	if err != nil {
		return nil, err
	}

	budget := &Budget{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Name:               name,
		Limit:              limit,
		Category:           category,
		StartDate:          window.Start(),
		EndDate:            window.End(),
		AlertThreshold:     DefaultAlertThreshold,
		IsActive:           true,
		Tags:               make([]string, 0),
	}
	for _, opt := range opts {
		if err := opt(budget); err != nil {
			return nil, err
		}
	}

	budget.AddDomainEvent(NewBudgetCreatedEvent(budget))
	return budget, nil
}

// Window returns the budget's [StartDate, EndDate) range
func (b *Budget) Window() valueobject.DateRange {
	// StartDate < EndDate is enforced by every mutator
	r, _ := valueobject.NewDateRange(b.StartDate, b.EndDate)
	return r
}

// Overlaps reports whether both budgets are active, belong to the same user
// and category, and have intersecting windows.
func (b *Budget) Overlaps(other *Budget) bool {
	if other == nil || !b.IsActive || !other.IsActive {
		return false
	}
	if b.UserID != other.UserID || foldName(b.Category) != foldName(other.Category) {
		return false
	}
	return b.Window().Overlaps(other.Window())
}

// EnsureNoOverlap fails with OVERLAPPING_BUDGET if any of existing overlaps b.
// The budget itself is skipped so edits can be re-checked against a list that
// includes the stored copy.
func (b *Budget) EnsureNoOverlap(existing []*Budget) error {
	for _, other := range existing {
		if other == nil || other.ID == b.ID {
			continue
		}
		if b.Overlaps(other) {
			return shared.NewDomainErrorf(shared.CodeOverlappingBudget,
				"Budget %q for %s overlaps budget %q (%s to %s)",
				b.Name, b.Category, other.Name,
				other.StartDate.Format(time.DateOnly), other.EndDate.Format(time.DateOnly))
		}
	}
	return nil
}

// Utilization is the derived spending state of a budget
type Utilization struct {
	BudgetID         uuid.UUID                `json:"budget_id"`
	Limit            valueobject.Money        `json:"limit"`
	Spent            valueobject.Money        `json:"spent"`
	Remaining        valueobject.SignedAmount `json:"remaining"`
	PercentageUsed   decimal.Decimal          `json:"percentage_used"`
	IsOverBudget     bool                     `json:"is_over_budget"`
	ThresholdReached bool                     `json:"threshold_reached"`
	ExpenseCount     int                      `json:"expense_count"`
}

// ComputeUtilization sums the expenses that belong to this budget: same user,
// same category ignoring case, and an expense date inside the window. Other
// expenses in the input are ignored. An included expense in a different
// currency than the limit fails with CURRENCY_MISMATCH.
func (b *Budget) ComputeUtilization(expenses []*Expense) (Utilization, error) {
	window := b.Window()
	spent := valueobject.Zero(b.Limit.Currency())
	count := 0

	for _, e := range expenses {
		if e == nil || e.UserID != b.UserID || !e.InCategory(b.Category) || !window.Contains(e.ExpenseDate) {
			continue
		}
		sum, err := spent.Add(e.Amount)
		if err != nil {
			return Utilization{}, err
		}
		spent = sum
		count++
	}

	remaining, err := b.Limit.Subtract(spent)
	if err != nil {
		return Utilization{}, err
	}

	percentage := decimal.Zero
	if !b.Limit.IsZero() {
		percentage = spent.Amount().Div(b.Limit.Amount()).Mul(hundred).Round(2)
	}
	over, err := spent.GreaterThan(b.Limit)
	if err != nil {
		return Utilization{}, err
	}

	return Utilization{
		BudgetID:         b.ID,
		Limit:            b.Limit,
		Spent:            spent,
		Remaining:        remaining,
		PercentageUsed:   percentage,
		IsOverBudget:     over,
		ThresholdReached: !b.Limit.IsZero() && percentage.GreaterThanOrEqual(b.AlertThreshold),
		ExpenseCount:     count,
	}, nil
}

// RecordThresholdAlert tracks the alert state against u. The first time an
// active budget reaches its threshold it raises BudgetThresholdReached and
// stamps ThresholdAlertedAt; later calls stay silent until utilization falls
// back below the threshold, which re-arms the alert. It reports whether the
// budget changed and needs saving.
func (b *Budget) RecordThresholdAlert(u Utilization, now time.Time) bool {
	switch {
	case !u.ThresholdReached:
		if b.ThresholdAlertedAt == nil {
			return false
		}
		b.ThresholdAlertedAt = nil
	case !b.IsActive || b.ThresholdAlertedAt != nil:
		return false
	default:
		alertedAt := now.UTC()
		b.ThresholdAlertedAt = &alertedAt
		b.AddDomainEvent(NewBudgetThresholdReachedEvent(b, u))
	}
	b.Touch()
	return true
}

// SetAlertThreshold sets the alert percentage, which must lie in [0, 100]
// with at most two decimals. A new threshold re-arms the alert.
func (b *Budget) SetAlertThreshold(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.NewDomainErrorf(shared.CodeOutOfRange, "Alert threshold must be between 0 and 100, got %s", pct.String())
	}
	if exceedsScale(pct, maxAlertThresholdScale) {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Alert threshold cannot have more than %d decimal places, got %s", maxAlertThresholdScale, pct.String())
	}
	b.AlertThreshold = pct
	b.ThresholdAlertedAt = nil
	b.Touch()
	return nil
}

// SetRecurrence changes the recurrence pattern. It does not create new budget instances.
func (b *Budget) SetRecurrence(period BudgetPeriod) error {
	if err := b.setRecurrence(period); err != nil {
		return err
	}
	b.Touch()
	return nil
}

// RemoveRecurrence clears the recurrence pattern
func (b *Budget) RemoveRecurrence() {
	b.Recurrence = BudgetPeriodNone
	b.Touch()
}

// HasRecurrence reports whether a recurrence pattern is set
func (b *Budget) HasRecurrence() bool {
	return b.Recurrence != BudgetPeriodNone
}

// BudgetDetails carries the editable fields of a budget
type BudgetDetails struct {
	Name        string
	Description string
	Limit       valueobject.Money
	Category    string
	Window      valueobject.DateRange
}

// UpdateDetails replaces the editable fields. Callers must re-run
// EnsureNoOverlap before persisting the change.
func (b *Budget) UpdateDetails(d BudgetDetails) error {
	name, category, err := validateBudgetDetails(d.Name, d.Limit, d.Category, d.Window)
	if err != nil {
		return err
	}
	description := strings.TrimSpace(d.Description)
	if utf8.RuneCountInString(description) > maxBudgetDescriptionLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Budget description cannot exceed %d characters", maxBudgetDescriptionLength)
	}
	b.Name = name
	b.Description = description
	b.Limit = d.Limit
	b.Category = category
	b.StartDate = d.Window.Start()
	b.EndDate = d.Window.End()
	b.ThresholdAlertedAt = nil
	b.Touch()
	return nil
}

// Deactivate turns the budget off; inactive budgets never overlap
func (b *Budget) Deactivate() {
	b.IsActive = false
	b.Touch()
}

// Activate turns the budget back on. Callers must re-run EnsureNoOverlap.
func (b *Budget) Activate() {
	b.IsActive = true
	b.Touch()
}

func (b *Budget) setRecurrence(period BudgetPeriod) error {
	if !period.IsValid() {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Unknown budget period %q", period)
	}
	b.Recurrence = period
	return nil
}

func validateBudgetDetails(name string, limit valueobject.Money, category string, window valueobject.DateRange) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Budget name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxBudgetNameLength {
		return "", "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Budget name cannot exceed %d characters", maxBudgetNameLength)
	}
	if limit.Currency() == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidAmount, "Budget limit is required")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Budget category cannot be empty")
	}
	if window.Start().IsZero() || !window.Start().Before(window.End()) {
		return "", "", shared.NewDomainError(shared.CodeInvalidDateRange, "Budget start date must be before end date")
	}
	return name, category, nil
}
