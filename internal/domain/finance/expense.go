package finance

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
)

const (
	maxExpenseDescriptionLength = 500
	maxExpenseNotesLength       = 2000
	maxRejectionReasonLength    = 1000
)

// ExpenseStatus represents the status of an expense
type ExpenseStatus string

const (
	ExpenseStatusDraft     ExpenseStatus = "draft"
	ExpenseStatusSubmitted ExpenseStatus = "submitted"
	ExpenseStatusApproved  ExpenseStatus = "approved"
	ExpenseStatusRejected  ExpenseStatus = "rejected"
)

// IsValid checks if the status is a valid ExpenseStatus
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusDraft, ExpenseStatusSubmitted, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// CanSubmit returns true if the expense can be submitted for approval
func (s ExpenseStatus) CanSubmit() bool {
	return s == ExpenseStatusDraft
}

// CanReview returns true if the expense can be approved or rejected
func (s ExpenseStatus) CanReview() bool {
	return s == ExpenseStatusSubmitted
}

// IsEditable returns true unless the expense is approved
func (s ExpenseStatus) IsEditable() bool {
	return s != ExpenseStatusApproved
}

// Expense is a single expense owned by a user.
// Status only changes through Submit, Approve, Reject and UpdateDetails.
type Expense struct {
	shared.OwnedAggregateRoot
	Description       string            `json:"description"`
	Amount            valueobject.Money `json:"amount"`
	Category          string            `json:"category"`
	ExpenseDate       time.Time         `json:"expense_date"`
	Notes             string            `json:"notes"`
	MerchantName      string            `json:"merchant_name"`
	PaymentMethod     string            `json:"payment_method"`
	ReceiptURL        string            `json:"receipt_url"`
	IsReimbursable    bool              `json:"is_reimbursable"`
	IsReimbursed      bool              `json:"is_reimbursed"`
	ReimbursedAt      *time.Time        `json:"reimbursed_at"`
	Status            ExpenseStatus     `json:"status"`
	RejectionReason   string            `json:"rejection_reason"`
	SubmittedAt       *time.Time        `json:"submitted_at"`
	ReviewedAt        *time.Time        `json:"reviewed_at"`
	IsAiCategorized   bool              `json:"is_ai_categorized"`
	AiConfidenceScore float64           `json:"ai_confidence_score"`
	ExtractedText     string            `json:"extracted_text"`
	Tags              []string          `json:"tags"`
}

// ExpenseOption sets optional fields on a new expense
type ExpenseOption func(*Expense)

// WithNotes sets free-form notes
func WithNotes(notes string) ExpenseOption {
	return func(e *Expense) { e.Notes = strings.TrimSpace(notes) }
}

// WithMerchant sets the merchant name
func WithMerchant(merchant string) ExpenseOption {
	return func(e *Expense) { e.MerchantName = strings.TrimSpace(merchant) }
}

// WithPaymentMethod sets how the expense was paid
func WithPaymentMethod(method string) ExpenseOption {
	return func(e *Expense) { e.PaymentMethod = strings.TrimSpace(method) }
}

// WithReimbursable marks the expense as eligible for reimbursement
func WithReimbursable(reimbursable bool) ExpenseOption {
	return func(e *Expense) { e.IsReimbursable = reimbursable }
}

// WithTags attaches initial tags
func WithTags(tags ...string) ExpenseOption {
	return func(e *Expense) {
		for _, tag := range tags {
			if normalized := normalizeTag(tag); normalized != "" && !slices.Contains(e.Tags, normalized) {
				e.Tags = append(e.Tags, normalized)
			}
		}
	}
}

// NewExpense creates a new draft expense
func NewExpense(
	userID uuid.UUID,
	description string,
	amount valueobject.Money,
	category string,
	expenseDate time.Time,
	opts ...ExpenseOption,
) (*Expense, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "User ID cannot be empty")
	}
	description, category, err := validateExpenseDetails(description, amount, category, expenseDate)
	if err != nil {
		return nil, err
	}

	expense := &Expense{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Description:        description,
		Amount:             amount,
		Category:           category,
		ExpenseDate:        expenseDate,
		Status:             ExpenseStatusDraft,
		Tags:               make([]string, 0),
	}
	for _, opt := range opts {
		opt(expense)
	}
	if utf8.RuneCountInString(expense.Notes) > maxExpenseNotesLength {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Notes cannot exceed %d characters", maxExpenseNotesLength)
	}

	expense.AddDomainEvent(NewExpenseCreatedEvent(expense))
	return expense, nil
}

// ExpenseDetails carries the editable fields of an expense
type ExpenseDetails struct {
	Description    string
	Amount         valueobject.Money
	Category       string
	ExpenseDate    time.Time
	Notes          string
	MerchantName   string
	PaymentMethod  string
	IsReimbursable *bool
}

// UpdateDetails replaces the editable fields.
// Approved expenses are immutable. Editing a rejected expense returns it to
// draft so it can be submitted again. An ExpenseUpdated event is raised when
// the amount changes.
func (e *Expense) UpdateDetails(d ExpenseDetails) error {
	if !e.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot update approved expenses")
	}
	description, category, err := validateExpenseDetails(d.Description, d.Amount, d.Category, d.ExpenseDate)
	if err != nil {
		return err
	}
	notes := strings.TrimSpace(d.Notes)
	if utf8.RuneCountInString(notes) > maxExpenseNotesLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Notes cannot exceed %d characters", maxExpenseNotesLength)
	}

	oldAmount := e.Amount
	amountChanged := oldAmount.Currency() != d.Amount.Currency() || !oldAmount.Amount().Equal(d.Amount.Amount())

	e.Description = description
	e.Amount = d.Amount
	e.Category = category
	e.ExpenseDate = d.ExpenseDate
	e.Notes = notes
	e.MerchantName = strings.TrimSpace(d.MerchantName)
	e.PaymentMethod = strings.TrimSpace(d.PaymentMethod)
	if d.IsReimbursable != nil {
		e.IsReimbursable = *d.IsReimbursable
	}
	if e.Status == ExpenseStatusRejected {
		e.Status = ExpenseStatusDraft
		e.RejectionReason = ""
		e.ReviewedAt = nil
	}
	e.markUpdated()

	if amountChanged {
		e.AddDomainEvent(NewExpenseUpdatedEvent(e, oldAmount))
	}
	return nil
}

// Submit sends a draft expense for approval
func (e *Expense) Submit() error {
	if !e.Status.CanSubmit() {
		return shared.NewDomainErrorf(shared.CodeIllegalTransition, "Cannot submit expense in %s status", e.Status)
	}
	now := time.Now()
	e.Status = ExpenseStatusSubmitted
	e.SubmittedAt = &now
	e.markUpdated()
	e.AddDomainEvent(NewExpenseSubmittedEvent(e))
	return nil
}

// Approve approves a submitted expense and clears any previous rejection reason
func (e *Expense) Approve() error {
	if !e.Status.CanReview() {
		return shared.NewDomainErrorf(shared.CodeIllegalTransition, "Cannot approve expense in %s status", e.Status)
	}
	now := time.Now()
	e.Status = ExpenseStatusApproved
	e.RejectionReason = ""
	e.ReviewedAt = &now
	e.markUpdated()
	e.AddDomainEvent(NewExpenseApprovedEvent(e))
	return nil
}

// Reject rejects a submitted expense with a reason
func (e *Expense) Reject(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Rejection reason cannot be empty")
	}
	if utf8.RuneCountInString(reason) > maxRejectionReasonLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Rejection reason cannot exceed %d characters", maxRejectionReasonLength)
	}
	if !e.Status.CanReview() {
		return shared.NewDomainErrorf(shared.CodeIllegalTransition, "Cannot reject expense in %s status", e.Status)
	}
	now := time.Now()
	e.Status = ExpenseStatusRejected
	e.RejectionReason = reason
	e.ReviewedAt = &now
	e.markUpdated()
	e.AddDomainEvent(NewExpenseRejectedEvent(e))
	return nil
}

// MarkReimbursed records reimbursement of an approved, reimbursable expense.
// A second call is rejected.
func (e *Expense) MarkReimbursed() error {
	if !e.IsReimbursable {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot mark non-reimbursable expense as reimbursed")
	}
	if e.Status != ExpenseStatusApproved {
		return shared.NewDomainErrorf(shared.CodeIllegalOperation, "Cannot reimburse expense in %s status", e.Status)
	}
	if e.IsReimbursed {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Expense is already reimbursed")
	}
	now := time.Now()
	e.IsReimbursed = true
	e.ReimbursedAt = &now
	e.markUpdated()
	e.AddDomainEvent(NewExpenseReimbursedEvent(e))
	return nil
}

// SetAiCategorization overrides the category with an AI suggestion
func (e *Expense) SetAiCategorization(category string, confidence float64, extractedText string) error {
	if !(confidence >= 0 && confidence <= 1) {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Confidence score must be between 0 and 1, got %v", confidence)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Category cannot be empty")
	}
	if !e.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot recategorize approved expenses")
	}
	e.Category = category
	e.IsAiCategorized = true
	e.AiConfidenceScore = confidence
	e.ExtractedText = extractedText
	e.markUpdated()
	return nil
}

// AttachReceipt stores the location of an uploaded receipt
func (e *Expense) AttachReceipt(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Receipt URL cannot be empty")
	}
	if !e.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot attach receipts to approved expenses")
	}
	e.ReceiptURL = url
	e.markUpdated()
	return nil
}

// AddTag adds a normalized tag. Adding an existing tag is a no-op.
func (e *Expense) AddTag(tag string) error {
	normalized := normalizeTag(tag)
	if normalized == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Tag cannot be empty")
	}
	if !e.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot change tags of approved expenses")
	}
	if slices.Contains(e.Tags, normalized) {
		return nil
	}
	e.Tags = append(e.Tags, normalized)
	e.markUpdated()
	return nil
}

// RemoveTag removes a tag if present
func (e *Expense) RemoveTag(tag string) error {
	normalized := normalizeTag(tag)
	if normalized == "" {
		return nil
	}
	if !e.Status.IsEditable() {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot change tags of approved expenses")
	}
	idx := slices.Index(e.Tags, normalized)
	if idx < 0 {
		return nil
	}
	e.Tags = slices.Delete(e.Tags, idx, idx+1)
	e.markUpdated()
	return nil
}

// HasTag reports whether the expense carries tag
func (e *Expense) HasTag(tag string) bool {
	return slices.Contains(e.Tags, normalizeTag(tag))
}

// MarkDeleted raises ExpenseDeleted ahead of repository deletion
func (e *Expense) MarkDeleted() {
	e.AddDomainEvent(NewExpenseDeletedEvent(e))
}

// InCategory reports whether the expense is filed under name, ignoring case
func (e *Expense) InCategory(name string) bool {
	return foldName(e.Category) == foldName(name)
}

func (e *Expense) markUpdated() {
	e.Touch()
}

func validateExpenseDetails(description string, amount valueobject.Money, category string, expenseDate time.Time) (string, string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Description cannot be empty")
	}
	if utf8.RuneCountInString(description) > maxExpenseDescriptionLength {
		return "", "", shared.NewDomainErrorf(shared.CodeInvalidArgument, "Description cannot exceed %d characters", maxExpenseDescriptionLength)
	}
	if amount.Currency() == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidAmount, "Amount is required")
	}
	if !amount.IsPositive() {
		return "", "", shared.NewDomainError(shared.CodeInvalidAmount, "Amount must be greater than zero")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Category cannot be empty")
	}
	if expenseDate.IsZero() {
		return "", "", shared.NewDomainError(shared.CodeInvalidArgument, "Expense date is required")
	}
	return description, category, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
