package finance

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
)

// CategorizationRequest carries what is known about an expense when asking
// for a category suggestion
type CategorizationRequest struct {
	Description string
	Merchant    string
	Amount      decimal.Decimal
	ReceiptText string
}

// CategorySuggestion is a category name with a confidence in [0, 1]
type CategorySuggestion struct {
	Category   string
	Confidence float64
}

// Categorizer suggests a category for an expense
type Categorizer interface {
	Categorize(ctx context.Context, req CategorizationRequest) (CategorySuggestion, error)
}

// ExtractionResult is the outcome of reading a receipt document
type ExtractionResult struct {
	Text              string
	SuggestedCategory string
	Confidence        float64
}

// DocumentExtractor reads text and a category suggestion from a receipt
type DocumentExtractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (ExtractionResult, error)
}

// FileStorage stores uploaded receipts and returns their URL
type FileStorage interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
	// Remove deletes the receipt previously returned by Upload
	Remove(ctx context.Context, url string) error
}
