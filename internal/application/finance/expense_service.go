package finance

import (
	"bytes"
	"context"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultConfidenceThreshold is the minimum AI confidence for applying a suggested category
	DefaultConfidenceThreshold = 0.7

	// MaxReceiptSize is the largest receipt upload accepted, in bytes
	MaxReceiptSize = 10 << 20
)

var (
	allowedReceiptExtensions   = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif"}
	allowedReceiptContentTypes = []string{"application/pdf", "image/jpeg", "image/jpg", "image/png", "image/gif"}
)

// ExpenseService provides application-level expense operations
type ExpenseService struct {
	uow                 UnitOfWork
	taxonomy            *finance.Taxonomy
	publisher           shared.EventPublisher
	logger              *zap.Logger
	categorizer         Categorizer
	extractor           DocumentExtractor
	storage             FileStorage
	confidenceThreshold float64
}

// ExpenseServiceOption is a functional option for configuring ExpenseService
type ExpenseServiceOption func(*ExpenseService)

// WithCategorizer enables AI categorization of uncategorized expenses
func WithCategorizer(c Categorizer) ExpenseServiceOption {
	return func(s *ExpenseService) { s.categorizer = c }
}

// WithDocumentExtractor enables receipt text extraction on upload
func WithDocumentExtractor(e DocumentExtractor) ExpenseServiceOption {
	return func(s *ExpenseService) { s.extractor = e }
}

// WithFileStorage sets where uploaded receipts are stored
func WithFileStorage(fs FileStorage) ExpenseServiceOption {
	return func(s *ExpenseService) { s.storage = fs }
}

// WithConfidenceThreshold overrides DefaultConfidenceThreshold
func WithConfidenceThreshold(threshold float64) ExpenseServiceOption {
	return func(s *ExpenseService) { s.confidenceThreshold = threshold }
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	uow UnitOfWork,
	taxonomy *finance.Taxonomy,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...ExpenseServiceOption,
) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExpenseService{
		uow:                 uow,
		taxonomy:            taxonomy,
		publisher:           publisher,
		logger:              logger,
		confidenceThreshold: DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Category          string          `json:"category"`
	ExpenseDate       time.Time       `json:"expense_date"`
	Notes             string          `json:"notes,omitempty"`
	MerchantName      string          `json:"merchant_name,omitempty"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	ReceiptURL        string          `json:"receipt_url,omitempty"`
	IsReimbursable    bool            `json:"is_reimbursable"`
	IsReimbursed      bool            `json:"is_reimbursed"`
	ReimbursedAt      *time.Time      `json:"reimbursed_at,omitempty"`
	Status            string          `json:"status"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	IsAiCategorized   bool            `json:"is_ai_categorized"`
	AiConfidenceScore float64         `json:"ai_confidence_score,omitempty"`
	Tags              []string        `json:"tags"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// CreateExpenseRequest represents a request to create an expense
type CreateExpenseRequest struct {
	Description    string          `json:"description" binding:"required,max=500"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	Category       string          `json:"category"`
	ExpenseDate    time.Time       `json:"expense_date" binding:"required"`
	Notes          string          `json:"notes" binding:"max=2000"`
	MerchantName   string          `json:"merchant_name" binding:"max=200"`
	PaymentMethod  string          `json:"payment_method" binding:"max=50"`
	IsReimbursable bool            `json:"is_reimbursable"`
	Tags           []string        `json:"tags"`
}

// UpdateExpenseRequest represents a request to update an expense
type UpdateExpenseRequest struct {
	Description    string          `json:"description" binding:"required,max=500"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	Category       string          `json:"category" binding:"required"`
	ExpenseDate    time.Time       `json:"expense_date" binding:"required"`
	Notes          string          `json:"notes" binding:"max=2000"`
	MerchantName   string          `json:"merchant_name" binding:"max=200"`
	PaymentMethod  string          `json:"payment_method" binding:"max=50"`
	IsReimbursable *bool           `json:"is_reimbursable"`
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=draft submitted approved rejected"`
	Category string     `form:"category"`
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir"`
}

// UploadReceiptRequest carries an uploaded receipt file
type UploadReceiptRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
}

// Create records a new expense. Expenses filed as Uncategorized, or under a
// name the taxonomy does not know, are offered to the categorizer first.
func (s *ExpenseService) Create(ctx context.Context, userID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "create",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()))
	defer span.End()

	amount, err := valueobject.NewMoney(req.Amount, currencyOrDefault(req.Currency))
	if err != nil {
		return nil, err
	}

	exists, err := s.uow.Users().Exists(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError(shared.CodeNotFound, "User not found")
	}

	taxonomy, err := s.taxonomyFor(ctx, userID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	category := taxonomy.FindByName(req.Category)
	var suggestion *CategorySuggestion
	if taxonomy.IsUncategorized(category.Name) {
		suggestion = s.suggestCategory(ctx, taxonomy, CategorizationRequest{
			Description: req.Description,
			Merchant:    req.MerchantName,
			Amount:      req.Amount,
		})
	}

	expense, err := finance.NewExpense(userID, req.Description, amount, category.Name, req.ExpenseDate,
		finance.WithNotes(req.Notes),
		finance.WithMerchant(req.MerchantName),
		finance.WithPaymentMethod(req.PaymentMethod),
		finance.WithReimbursable(req.IsReimbursable),
		finance.WithTags(req.Tags...),
	)
	if err != nil {
		return nil, err
	}
	if suggestion != nil {
		if err := expense.SetAiCategorization(suggestion.Category, suggestion.Confidence, ""); err != nil {
			return nil, err
		}
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.Expenses().Save(ctx, expense)
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrExpenseID, expense.ID.String(),
		telemetry.SpanAttrCategory, expense.Category)
	telemetry.SetMoney(span, amount)
	s.logger.Info("expense created",
		zap.String("expense_id", expense.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("category", expense.Category),
		zap.Bool("ai_categorized", expense.IsAiCategorized))

	publishEvents(ctx, s.publisher, s.logger, expense)
	return toExpenseResponse(expense), nil
}

// Update replaces the editable fields of an expense
func (s *ExpenseService) Update(ctx context.Context, userID, expenseID uuid.UUID, req UpdateExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "update")
	defer span.End()

	amount, err := valueobject.NewMoney(req.Amount, currencyOrDefault(req.Currency))
	if err != nil {
		return nil, err
	}
	taxonomy, err := s.taxonomyFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	expense, err := s.mutate(ctx, userID, expenseID, func(e *finance.Expense) error {
		return e.UpdateDetails(finance.ExpenseDetails{
			Description:    req.Description,
			Amount:         amount,
			Category:       taxonomy.FindByName(req.Category).Name,
			ExpenseDate:    req.ExpenseDate,
			Notes:          req.Notes,
			MerchantName:   req.MerchantName,
			PaymentMethod:  req.PaymentMethod,
			IsReimbursable: req.IsReimbursable,
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// Submit sends a draft expense for approval
func (s *ExpenseService) Submit(ctx context.Context, userID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	return s.transition(ctx, "submit", userID, expenseID, (*finance.Expense).Submit)
}

// Approve approves a submitted expense
func (s *ExpenseService) Approve(ctx context.Context, userID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	return s.transition(ctx, "approve", userID, expenseID, (*finance.Expense).Approve)
}

// Reject rejects a submitted expense with a reason
func (s *ExpenseService) Reject(ctx context.Context, userID, expenseID uuid.UUID, reason string) (*ExpenseResponse, error) {
	return s.transition(ctx, "reject", userID, expenseID, func(e *finance.Expense) error {
		return e.Reject(reason)
	})
}

// MarkReimbursed records reimbursement of an approved expense
func (s *ExpenseService) MarkReimbursed(ctx context.Context, userID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	return s.transition(ctx, "reimburse", userID, expenseID, (*finance.Expense).MarkReimbursed)
}

// AddTag adds a tag to an expense
func (s *ExpenseService) AddTag(ctx context.Context, userID, expenseID uuid.UUID, tag string) (*ExpenseResponse, error) {
	return s.transition(ctx, "add_tag", userID, expenseID, func(e *finance.Expense) error {
		return e.AddTag(tag)
	})
}

// RemoveTag removes a tag from an expense
func (s *ExpenseService) RemoveTag(ctx context.Context, userID, expenseID uuid.UUID, tag string) (*ExpenseResponse, error) {
	return s.transition(ctx, "remove_tag", userID, expenseID, func(e *finance.Expense) error {
		return e.RemoveTag(tag)
	})
}

// Delete removes an expense and publishes ExpenseDeleted
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "delete")
	defer span.End()

	var deleted *finance.Expense
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		found, err := repos.Expenses().FindByID(ctx, expenseID)
		expense, err := checkOwnership(found, err, userID, "Expense")
		if err != nil {
			return err
		}
		expense.MarkDeleted()
		if err := repos.Expenses().Delete(ctx, expense.ID); err != nil {
			return err
		}
		deleted = expense
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("expense deleted", zap.String("expense_id", expenseID.String()))
	publishEvents(ctx, s.publisher, s.logger, deleted)
	return nil
}

// Get returns one of the user's expenses
func (s *ExpenseService) Get(ctx context.Context, userID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	found, err := s.uow.Expenses().FindByID(ctx, expenseID)
	expense, err := checkOwnership(found, err, userID, "Expense")
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// ListByUser lists the user's expenses with filtering and pagination
func (s *ExpenseService) ListByUser(ctx context.Context, userID uuid.UUID, filter ExpenseListFilter) (shared.Paginated[ExpenseResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "list")
	defer span.End()

	domainFilter := finance.ExpenseFilter{
		Category: filter.Category,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	normalizePage(&domainFilter.Filter)

	if filter.Status != "" {
		status := finance.ExpenseStatus(filter.Status)
		if !status.IsValid() {
			return shared.Paginated[ExpenseResponse]{}, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Unknown expense status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	expenses, total, err := s.uow.Expenses().FindByUser(ctx, userID, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[ExpenseResponse]{}, err
	}

	items := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		items[i] = *toExpenseResponse(e)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// UploadReceipt stores a receipt file, attaches it to the expense and, when
// an extractor is configured, applies the text and category it reads from
// the document. Extraction failures do not fail the upload.
func (s *ExpenseService) UploadReceipt(ctx context.Context, userID, expenseID uuid.UUID, req UploadReceiptRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "upload_receipt")
	defer span.End()

	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeIllegalOperation, "Receipt storage is not configured")
	}
	data, err := validateReceipt(req)
	if err != nil {
		return nil, err
	}

	found, err := s.uow.Expenses().FindByID(ctx, expenseID)
	expense, err := checkOwnership(found, err, userID, "Expense")
	if err != nil {
		return nil, err
	}
	if !expense.Status.IsEditable() {
		return nil, shared.NewDomainError(shared.CodeIllegalOperation, "Cannot attach receipts to approved expenses")
	}

	url, err := s.storage.Upload(ctx, bytes.NewReader(data), req.Filename, req.ContentType)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("receipt upload failed", zap.String("expense_id", expenseID.String()), zap.Error(err))
		return nil, err
	}

	var extraction *ExtractionResult
	if s.extractor != nil {
		result, err := s.extractor.Extract(ctx, bytes.NewReader(data), req.Filename)
		if err != nil {
			s.logger.Warn("receipt extraction failed",
				zap.String("expense_id", expenseID.String()),
				zap.Error(err))
		} else {
			extraction = &result
		}
	}

	var taxonomy *finance.Taxonomy
	if extraction != nil {
		if taxonomy, err = s.taxonomyFor(ctx, userID); err != nil {
			s.removeReceipt(ctx, expenseID, url)
			return nil, err
		}
	}

	updated, err := s.mutate(ctx, userID, expenseID, func(e *finance.Expense) error {
		if err := e.AttachReceipt(url); err != nil {
			return err
		}
		if extraction == nil {
			return nil
		}
		category := taxonomy.FindByName(extraction.SuggestedCategory).Name
		if err := e.SetAiCategorization(category, clampConfidence(extraction.Confidence), extraction.Text); err != nil {
			s.logger.Warn("ignoring receipt categorization", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.removeReceipt(ctx, expenseID, url)
		return nil, err
	}
	return toExpenseResponse(updated), nil
}

// removeReceipt deletes an uploaded file that never got attached
func (s *ExpenseService) removeReceipt(ctx context.Context, expenseID uuid.UUID, url string) {
	if err := s.storage.Remove(ctx, url); err != nil {
		s.logger.Warn("failed to remove orphaned receipt",
			zap.String("expense_id", expenseID.String()),
			zap.String("url", url),
			zap.Error(err))
	}
}

// CategoryTotal is the spend in one category and currency
type CategoryTotal struct {
	Category string          `json:"category"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// CurrencyTotal is the spend in one currency
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// ExpenseStatistics summarizes a user's expenses
type ExpenseStatistics struct {
	TotalCount    int             `json:"total_count"`
	Totals        []CurrencyTotal `json:"totals"`
	ByCategory    []CategoryTotal `json:"by_category"`
	ByStatus      map[string]int  `json:"by_status"`
	Reimbursable  []CurrencyTotal `json:"reimbursable_outstanding"`
	AiCategorized int             `json:"ai_categorized"`
	PeriodStart   *time.Time      `json:"period_start,omitempty"`
	PeriodEnd     *time.Time      `json:"period_end,omitempty"`
}

// Statistics totals the user's expenses per category, currency and status.
// Amounts are never converted between currencies.
func (s *ExpenseService) Statistics(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*ExpenseStatistics, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "statistics")
	defer span.End()

	filter := finance.ExpenseFilter{FromDate: from, ToDate: to}
	expenses, _, err := s.uow.Expenses().FindByUser(ctx, userID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	stats := &ExpenseStatistics{
		TotalCount:  len(expenses),
		ByStatus:    make(map[string]int),
		PeriodStart: from,
		PeriodEnd:   to,
	}
	byCurrency := make(map[string]*CurrencyTotal)
	reimbursable := make(map[string]*CurrencyTotal)
	byCategory := make(map[[2]string]*CategoryTotal)

	for _, e := range expenses {
		cur := e.Amount.Currency().String()
		addCurrencyTotal(byCurrency, cur, e.Amount.Amount())

		key := [2]string{e.Category, cur}
		ct, ok := byCategory[key]
		if !ok {
			ct = &CategoryTotal{Category: e.Category, Currency: cur}
			byCategory[key] = ct
		}
		ct.Amount = ct.Amount.Add(e.Amount.Amount())
		ct.Count++

		stats.ByStatus[e.Status.String()]++
		if e.IsAiCategorized {
			stats.AiCategorized++
		}
		if e.IsReimbursable && !e.IsReimbursed {
			addCurrencyTotal(reimbursable, cur, e.Amount.Amount())
		}
	}

	stats.Totals = sortedCurrencyTotals(byCurrency)
	stats.Reimbursable = sortedCurrencyTotals(reimbursable)
	stats.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		stats.ByCategory = append(stats.ByCategory, *ct)
	}
	slices.SortFunc(stats.ByCategory, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Category+a.Currency, b.Category+b.Currency)
	})
	return stats, nil
}

func (s *ExpenseService) transition(ctx context.Context, method string, userID, expenseID uuid.UUID, fn func(*finance.Expense) error) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", method,
		telemetry.WithAttribute(telemetry.SpanAttrExpenseID, expenseID.String()))
	defer span.End()

	expense, err := s.mutate(ctx, userID, expenseID, fn)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("expense "+method,
		zap.String("expense_id", expense.ID.String()),
		zap.String("status", expense.Status.String()))
	return toExpenseResponse(expense), nil
}

// mutate loads an owned expense inside a transaction, applies fn, saves it
// and publishes the resulting events after commit
func (s *ExpenseService) mutate(ctx context.Context, userID, expenseID uuid.UUID, fn func(*finance.Expense) error) (*finance.Expense, error) {
	var expense *finance.Expense
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		found, err := repos.Expenses().FindByID(ctx, expenseID)
		e, err := checkOwnership(found, err, userID, "Expense")
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		if err := repos.Expenses().Save(ctx, e); err != nil {
			return err
		}
		expense = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishEvents(ctx, s.publisher, s.logger, expense)
	return expense, nil
}

func (s *ExpenseService) taxonomyFor(ctx context.Context, userID uuid.UUID) (*finance.Taxonomy, error) {
	categories, err := s.uow.Categories().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.taxonomy.WithUserCategories(categories), nil
}

// suggestCategory asks the categorizer for a category. It returns nil when
// no categorizer is configured, the call fails, or confidence is too low.
func (s *ExpenseService) suggestCategory(ctx context.Context, taxonomy *finance.Taxonomy, req CategorizationRequest) *CategorySuggestion {
	if s.categorizer == nil {
		return nil
	}
	suggestion, err := s.categorizer.Categorize(ctx, req)
	if err != nil {
		s.logger.Warn("expense categorization failed", zap.Error(err))
		return nil
	}
	if suggestion.Confidence <= s.confidenceThreshold {
		s.logger.Debug("categorization below threshold",
			zap.String("category", suggestion.Category),
			zap.Float64("confidence", suggestion.Confidence))
		return nil
	}
	category, ok := taxonomy.Lookup(suggestion.Category)
	if !ok {
		return nil
	}
	suggestion.Category = category.Name
	suggestion.Confidence = clampConfidence(suggestion.Confidence)
	return &suggestion
}

func validateReceipt(req UploadReceiptRequest) ([]byte, error) {
	if req.File == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Receipt file is required")
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !slices.Contains(allowedReceiptExtensions, ext) {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "File type must be PDF, JPG, JPEG, PNG, or GIF")
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if !slices.Contains(allowedReceiptContentTypes, contentType) {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Content type %q is not accepted for receipts", req.ContentType)
	}
	data, err := io.ReadAll(io.LimitReader(req.File, MaxReceiptSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Receipt file cannot be empty")
	}
	if len(data) > MaxReceiptSize {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Receipt file cannot exceed 10MB")
	}
	return data, nil
}

// clampConfidence maps a collaborator score into [0,1]; NaN becomes 0
func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return min(max(c, 0), 1)
}

func currencyOrDefault(code string) string {
	if strings.TrimSpace(code) == "" {
		return valueobject.DefaultCurrency.String()
	}
	return code
}

func addCurrencyTotal(m map[string]*CurrencyTotal, currency string, amount decimal.Decimal) {
	t, ok := m[currency]
	if !ok {
		t = &CurrencyTotal{Currency: currency}
		m[currency] = t
	}
	t.Amount = t.Amount.Add(amount)
	t.Count++
}

func sortedCurrencyTotals(m map[string]*CurrencyTotal) []CurrencyTotal {
	out := make([]CurrencyTotal, 0, len(m))
	for _, t := range m {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b CurrencyTotal) int {
		return strings.Compare(a.Currency, b.Currency)
	})
	return out
}

func toExpenseResponse(e *finance.Expense) *ExpenseResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ExpenseResponse{
		ID:                e.ID,
		UserID:            e.UserID,
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
		Status:            e.Status.String(),
		RejectionReason:   e.RejectionReason,
		SubmittedAt:       e.SubmittedAt,
		ReviewedAt:        e.ReviewedAt,
		IsAiCategorized:   e.IsAiCategorized,
		AiConfidenceScore: e.AiConfidenceScore,
		Tags:              tags,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		Version:           e.Version,
	}
}
