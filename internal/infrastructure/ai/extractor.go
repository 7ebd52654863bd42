package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	appfinance "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"go.uber.org/zap"
)

// MaxExtractedTextLength caps the text kept from a receipt
const MaxExtractedTextLength = 4000

// ErrUnsupportedDocument is returned for documents the extractor cannot read
var ErrUnsupportedDocument = errors.New("unsupported receipt document type")

var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".csv":  true,
	".md":   true,
	".eml":  true,
}

// TextExtractor reads plain-text receipts and categorizes their content
type TextExtractor struct {
	categorizer appfinance.Categorizer
	logger      *zap.Logger
}

// NewTextExtractor creates an extractor that scores the extracted text with categorizer
func NewTextExtractor(categorizer appfinance.Categorizer, logger *zap.Logger) *TextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextExtractor{categorizer: categorizer, logger: logger}
}

// Extract implements appfinance.DocumentExtractor
func (e *TextExtractor) Extract(ctx context.Context, r io.Reader, filename string) (appfinance.ExtractionResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !textExtensions[ext] {
		return appfinance.ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedDocument, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxExtractedTextLength*4))
	if err != nil {
		return appfinance.ExtractionResult{}, fmt.Errorf("failed to read receipt: %w", err)
	}
	if !utf8.Valid(data) {
		return appfinance.ExtractionResult{}, fmt.Errorf("%w: not valid UTF-8 text", ErrUnsupportedDocument)
	}

	text := truncateRunes(strings.Join(strings.Fields(string(data)), " "), MaxExtractedTextLength)
	result := appfinance.ExtractionResult{Text: text}
	if text == "" || e.categorizer == nil {
		return result, nil
	}

	suggestion, err := e.categorizer.Categorize(ctx, appfinance.CategorizationRequest{ReceiptText: text})
	if err != nil {
		e.logger.Warn("Failed to categorize receipt text", zap.String("filename", filename), zap.Error(err))
		return result, nil
	}
	result.SuggestedCategory = suggestion.Category
	result.Confidence = suggestion.Confidence
	return result, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

var _ appfinance.DocumentExtractor = (*TextExtractor)(nil)
