package dto

import (
	"net/http"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

// Transport-level error codes. Domain failures keep their shared.DomainError code.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodePayloadTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	// Invalid input -> 400
	shared.CodeInvalidArgument:  http.StatusBadRequest,
	shared.CodeInvalidAmount:    http.StatusBadRequest,
	shared.CodeInvalidCurrency:  http.StatusBadRequest,
	shared.CodeInvalidDateRange: http.StatusBadRequest,
	shared.CodeOutOfRange:       http.StatusBadRequest,
	shared.CodeIndexOutOfRange:  http.StatusBadRequest,

	shared.CodeNotFound:  http.StatusNotFound,
	shared.CodeForbidden: http.StatusForbidden,

	// Conflicts with existing state -> 409
	shared.CodeDuplicateName:       http.StatusConflict,
	shared.CodeReservedName:        http.StatusConflict,
	shared.CodeOverlappingBudget:   http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	// Business rule violations -> 422
	shared.CodeIllegalTransition:       http.StatusUnprocessableEntity,
	shared.CodeIllegalOperation:        http.StatusUnprocessableEntity,
	shared.CodeEmptyInvoice:            http.StatusUnprocessableEntity,
	shared.CodeSystemCategoryProtected: http.StatusUnprocessableEntity,

	// mixing currencies is a caller bug, not bad input
	shared.CodeCurrencyMismatch: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
