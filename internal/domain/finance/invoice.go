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
	maxClientNameLength       = 200
	maxLineItemDescLength     = 500
	maxInvoiceNotesLength     = 2000
	maxInvoiceNumberLength    = 50
	maxPaymentReferenceLength = 200
	maxClientAddressLength    = 500

	// Scales of the tax_rate and quantity columns
	maxTaxRateScale  = 4
	maxQuantityScale = 4
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// AllowsItemChanges returns true while line items may still change
func (s InvoiceStatus) AllowsItemChanges() bool {
	return s == InvoiceStatusDraft
}

// LineItem is one billed line of an invoice
type LineItem struct {
	ID          uuid.UUID         `json:"id"`
	Description string            `json:"description"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Quantity    decimal.Decimal   `json:"quantity"`
}

// NewLineItem validates and creates a line item
func NewLineItem(description string, unitPrice valueobject.Money, quantity decimal.Decimal) (LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidArgument, "Line item description cannot be empty")
	}
	if utf8.RuneCountInString(description) > maxLineItemDescLength {
		return LineItem{}, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Line item description cannot exceed %d characters", maxLineItemDescLength)
	}
	if !quantity.IsPositive() {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidArgument, "Quantity must be greater than zero")
	}
	if exceedsScale(quantity, maxQuantityScale) {
		return LineItem{}, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Quantity cannot have more than %d decimal places, got %s", maxQuantityScale, quantity.String())
	}
	if unitPrice.Currency() == "" {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidAmount, "Unit price is required")
	}
	return LineItem{
		ID:          uuid.New(),
		Description: description,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	}, nil
}

// Total returns unit price times quantity
func (l LineItem) Total() valueobject.Money {
	// quantity is positive, so Multiply cannot fail
	total, _ := l.UnitPrice.Multiply(l.Quantity)
	return total
}

// Invoice is a bill sent by a user to a client.
// Subtotal, tax and total are derived from the line items on every read.
type Invoice struct {
	shared.OwnedAggregateRoot
	Number           string               `json:"invoice_number"`
	ClientName       string               `json:"client_name"`
	ClientEmail      string               `json:"client_email"`
	ClientAddress    string               `json:"client_address"`
	IssueDate        time.Time            `json:"issue_date"`
	DueDate          time.Time            `json:"due_date"`
	Currency         valueobject.Currency `json:"currency"`
	TaxRate          decimal.Decimal      `json:"tax_rate"`
	Notes            string               `json:"notes"`
	Status           InvoiceStatus        `json:"status"`
	PaidDate         *time.Time           `json:"paid_date,omitempty"`
	PaymentMethod    string               `json:"payment_method"`
	PaymentReference string               `json:"payment_reference"`
	items            []LineItem
}

// InvoiceOption sets optional fields on a new invoice
type InvoiceOption func(*Invoice)

// WithClientAddress sets the client's postal address
func WithClientAddress(address string) InvoiceOption {
	return func(i *Invoice) {
		i.ClientAddress = strings.TrimSpace(address)
	}
}

// WithInvoiceNotes sets free-form notes printed on the invoice
func WithInvoiceNotes(notes string) InvoiceOption {
	return func(i *Invoice) {
		i.Notes = strings.TrimSpace(notes)
	}
}

// NewInvoice creates a draft invoice without line items
func NewInvoice(
	userID uuid.UUID,
	number string,
	clientName string,
	clientEmail string,
	issueDate time.Time,
	dueDate time.Time,
	currency string,
	taxRate decimal.Decimal,
	opts ...InvoiceOption,
) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "User ID cannot be empty")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Invoice number cannot be empty")
	}
	if len(number) > maxInvoiceNumberLength {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Invoice number cannot exceed %d characters", maxInvoiceNumberLength)
	}
	cur, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	if err := validateTaxRate(taxRate); err != nil {
		return nil, err
	}

	invoice := &Invoice{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Number:             number,
		Currency:           cur,
		TaxRate:            taxRate,
		Status:             InvoiceStatusDraft,
		items:              make([]LineItem, 0),
	}
	if err := invoice.applyClient(clientName, clientEmail, ""); err != nil {
		return nil, err
	}
	if err := invoice.applyDates(issueDate, dueDate); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(invoice)
	}
	if utf8.RuneCountInString(invoice.ClientAddress) > maxClientAddressLength {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Client address cannot exceed %d characters", maxClientAddressLength)
	}
	if utf8.RuneCountInString(invoice.Notes) > maxInvoiceNotesLength {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Notes cannot exceed %d characters", maxInvoiceNotesLength)
	}
	return invoice, nil
}

// LineItems returns a copy of the line items in order
func (i *Invoice) LineItems() []LineItem {
	return slices.Clone(i.items)
}

// ItemCount returns the number of line items
func (i *Invoice) ItemCount() int {
	return len(i.items)
}

// LoadLineItems replaces the line items when rehydrating from storage.
// It performs no lifecycle checks and raises no events.
func (i *Invoice) LoadLineItems(items []LineItem) {
	i.items = slices.Clone(items)
}

// Subtotal is the sum of all line item totals
func (i *Invoice) Subtotal() valueobject.Money {
	subtotal := valueobject.Zero(i.Currency)
	for _, item := range i.items {
		// line item currency is checked on insert
		subtotal, _ = subtotal.Add(item.Total())
	}
	return subtotal
}

// TaxAmount is the subtotal times the tax rate
func (i *Invoice) TaxAmount() valueobject.Money {
	tax, err := i.Subtotal().Multiply(i.TaxRate)
	if err != nil {
		return valueobject.Zero(i.Currency)
	}
	return tax
}

// Total is subtotal plus tax
func (i *Invoice) Total() valueobject.Money {
	total, _ := i.Subtotal().Add(i.TaxAmount())
	return total
}

// AddLineItem appends a line item to a draft invoice
func (i *Invoice) AddLineItem(description string, unitPrice valueobject.Money, quantity decimal.Decimal) (LineItem, error) {
	if err := i.ensureItemsEditable(); err != nil {
		return LineItem{}, err
	}
	item, err := NewLineItem(description, unitPrice, quantity)
	if err != nil {
		return LineItem{}, err
	}
	if err := i.checkCurrency(unitPrice); err != nil {
		return LineItem{}, err
	}
	i.items = append(i.items, item)
	i.Touch()
	return item, nil
}

// RemoveLineItem removes the line item at index
func (i *Invoice) RemoveLineItem(index int) error {
	if err := i.ensureItemsEditable(); err != nil {
		return err
	}
	if err := i.checkIndex(index); err != nil {
		return err
	}
	i.items = slices.Delete(i.items, index, index+1)
	i.Touch()
	return nil
}

// UpdateLineItem replaces the line item at index, keeping its ID
func (i *Invoice) UpdateLineItem(index int, description string, unitPrice valueobject.Money, quantity decimal.Decimal) error {
	if err := i.ensureItemsEditable(); err != nil {
		return err
	}
	if err := i.checkIndex(index); err != nil {
		return err
	}
	item, err := NewLineItem(description, unitPrice, quantity)
	if err != nil {
		return err
	}
	if err := i.checkCurrency(unitPrice); err != nil {
		return err
	}
	item.ID = i.items[index].ID
	i.items[index] = item
	i.Touch()
	return nil
}

// Send moves a draft invoice with at least one line item to sent
func (i *Invoice) Send() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf(shared.CodeIllegalTransition, "Cannot send invoice in %s status", i.Status)
	}
	if len(i.items) == 0 {
		return shared.NewDomainError(shared.CodeEmptyInvoice, "Cannot send invoice without line items")
	}
	i.Status = InvoiceStatusSent
	i.Touch()
	i.AddDomainEvent(NewInvoiceGeneratedEvent(i))
	return nil
}

// MarkAsPaid records payment of a sent invoice
func (i *Invoice) MarkAsPaid(paidDate time.Time, method, reference string) error {
	if i.Status != InvoiceStatusSent {
		return shared.NewDomainErrorf(shared.CodeIllegalTransition, "Cannot mark invoice as paid in %s status", i.Status)
	}
	if paidDate.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Paid date is required")
	}
	reference = strings.TrimSpace(reference)
	if utf8.RuneCountInString(reference) > maxPaymentReferenceLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Payment reference cannot exceed %d characters", maxPaymentReferenceLength)
	}
	i.Status = InvoiceStatusPaid
	i.PaidDate = &paidDate
	i.PaymentMethod = strings.TrimSpace(method)
	i.PaymentReference = reference
	i.Touch()
	i.AddDomainEvent(NewInvoicePaidEvent(i))
	return nil
}

// Cancel cancels an invoice that has not been paid
func (i *Invoice) Cancel() error {
	switch i.Status {
	case InvoiceStatusPaid:
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot cancel paid invoice")
	case InvoiceStatusCancelled:
		return shared.NewDomainError(shared.CodeIllegalTransition, "Invoice is already cancelled")
	}
	previous := i.Status
	i.Status = InvoiceStatusCancelled
	i.Touch()
	i.AddDomainEvent(NewInvoiceCancelledEvent(i, previous))
	return nil
}

// UpdateClient replaces the client details of a draft invoice
func (i *Invoice) UpdateClient(name, email, address string) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf(shared.CodeIllegalOperation, "Cannot change client of invoice in %s status", i.Status)
	}
	if err := i.applyClient(name, email, address); err != nil {
		return err
	}
	i.Touch()
	return nil
}

// UpdateDates replaces the issue and due dates of a draft invoice
func (i *Invoice) UpdateDates(issueDate, dueDate time.Time) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf(shared.CodeIllegalOperation, "Cannot change dates of invoice in %s status", i.Status)
	}
	if err := i.applyDates(issueDate, dueDate); err != nil {
		return err
	}
	i.Touch()
	return nil
}

// UpdateNotes replaces the notes of a draft invoice. Empty notes clear them.
func (i *Invoice) UpdateNotes(notes string) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf(shared.CodeIllegalOperation, "Cannot change notes of invoice in %s status", i.Status)
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxInvoiceNotesLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Notes cannot exceed %d characters", maxInvoiceNotesLength)
	}
	i.Notes = notes
	i.Touch()
	return nil
}

// EnsureDeletable rejects deleting a paid invoice
func (i *Invoice) EnsureDeletable() error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError(shared.CodeIllegalOperation, "Cannot delete paid invoice")
	}
	return nil
}

// IsOverdue reports whether a sent invoice is past its due date at now
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusSent && now.After(i.DueDate)
}

// DaysOverdue returns the whole days past due, or 0 when not overdue
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}

func (i *Invoice) ensureItemsEditable() error {
	if !i.Status.AllowsItemChanges() {
		return shared.NewDomainErrorf(shared.CodeIllegalOperation, "Cannot modify line items of %s invoice", i.Status)
	}
	return nil
}

func (i *Invoice) checkIndex(index int) error {
	if index < 0 || index >= len(i.items) {
		return shared.NewDomainErrorf(shared.CodeIndexOutOfRange, "Line item index %d out of range [0,%d)", index, len(i.items))
	}
	return nil
}

func (i *Invoice) checkCurrency(m valueobject.Money) error {
	if m.Currency() != i.Currency {
		return shared.NewDomainErrorf(shared.CodeCurrencyMismatch, "Line item currency %s does not match invoice currency %s", m.Currency(), i.Currency)
	}
	return nil
}

func (i *Invoice) applyClient(name, email, address string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Client name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxClientNameLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Client name cannot exceed %d characters", maxClientNameLength)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Client email cannot be empty")
	}
	address = strings.TrimSpace(address)
	if utf8.RuneCountInString(address) > maxClientAddressLength {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Client address cannot exceed %d characters", maxClientAddressLength)
	}
	i.ClientName = name
	i.ClientEmail = email
	i.ClientAddress = address
	return nil
}

func (i *Invoice) applyDates(issueDate, dueDate time.Time) error {
	if issueDate.IsZero() || dueDate.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidDateRange, "Issue date and due date are required")
	}
	if dueDate.Before(issueDate) {
		return shared.NewDomainError(shared.CodeInvalidDateRange, "Due date cannot be before issue date")
	}
	i.IssueDate = issueDate
	i.DueDate = dueDate
	return nil
}

func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Tax rate must be between 0 and 1, got %s", rate.String())
	}
	if exceedsScale(rate, maxTaxRateScale) {
		return shared.NewDomainErrorf(shared.CodeInvalidArgument, "Tax rate cannot have more than %d decimal places, got %s", maxTaxRateScale, rate.String())
	}
	return nil
}

// exceedsScale reports whether d has significant digits beyond places decimals
func exceedsScale(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Truncate(places))
}
