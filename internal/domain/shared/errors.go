package shared

import "fmt"

// Error codes used across the financial domain.
const (
	CodeInvalidArgument         = "INVALID_ARGUMENT"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeInvalidCurrency         = "INVALID_CURRENCY"
	CodeInvalidDateRange        = "INVALID_DATE_RANGE"
	CodeOutOfRange              = "OUT_OF_RANGE"
	CodeIndexOutOfRange         = "INDEX_OUT_OF_RANGE"
	CodeIllegalTransition       = "ILLEGAL_TRANSITION"
	CodeIllegalOperation        = "ILLEGAL_OPERATION"
	CodeEmptyInvoice            = "EMPTY_INVOICE"
	CodeCurrencyMismatch        = "CURRENCY_MISMATCH"
	CodeOverlappingBudget       = "OVERLAPPING_BUDGET"
	CodeDuplicateName           = "DUPLICATE_NAME"
	CodeReservedName            = "RESERVED_NAME"
	CodeSystemCategoryProtected = "SYSTEM_CATEGORY_PROTECTED"
	CodeNotFound                = "NOT_FOUND"
	CodeForbidden               = "FORBIDDEN"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is makes errors.Is match any DomainError carrying the same code, so callers
// can compare against the sentinels below regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrInvalidArgument         = NewDomainError(CodeInvalidArgument, "Invalid argument")
	ErrInvalidAmount           = NewDomainError(CodeInvalidAmount, "Invalid amount")
	ErrInvalidCurrency         = NewDomainError(CodeInvalidCurrency, "Invalid currency")
	ErrInvalidDateRange        = NewDomainError(CodeInvalidDateRange, "Start date must be before end date")
	ErrOutOfRange              = NewDomainError(CodeOutOfRange, "Value out of range")
	ErrIndexOutOfRange         = NewDomainError(CodeIndexOutOfRange, "Index out of range")
	ErrIllegalTransition       = NewDomainError(CodeIllegalTransition, "Transition not allowed in current state")
	ErrIllegalOperation        = NewDomainError(CodeIllegalOperation, "Operation not allowed in current state")
	ErrEmptyInvoice            = NewDomainError(CodeEmptyInvoice, "Invoice has no line items")
	ErrCurrencyMismatch        = NewDomainError(CodeCurrencyMismatch, "Currency mismatch")
	ErrOverlappingBudget       = NewDomainError(CodeOverlappingBudget, "Budget overlaps an existing budget")
	ErrDuplicateName           = NewDomainError(CodeDuplicateName, "Name already exists")
	ErrReservedName            = NewDomainError(CodeReservedName, "Name is reserved")
	ErrSystemCategoryProtected = NewDomainError(CodeSystemCategoryProtected, "System categories cannot be modified")
	ErrNotFound                = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden               = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrConcurrencyConflict     = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)
