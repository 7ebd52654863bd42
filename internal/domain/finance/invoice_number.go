package finance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

const invoiceNumberPrefix = "INV"

// InvoiceNumberGenerator produces candidate invoice numbers. Candidates are
// not guaranteed unique; callers reserve and verify them before use.
type InvoiceNumberGenerator interface {
	Next(ctx context.Context, issueDate time.Time) (string, error)
}

// DateRandomGenerator produces INV-yyyyMMdd-XXXXXXXX, where the suffix is the
// first 8 hex characters of a random UUID.
type DateRandomGenerator struct {
	newID func() uuid.UUID
}

// NewDateRandomGenerator creates a DateRandomGenerator
func NewDateRandomGenerator() *DateRandomGenerator {
	return &DateRandomGenerator{newID: uuid.New}
}

// Next returns a new candidate number for issueDate
func (g *DateRandomGenerator) Next(_ context.Context, issueDate time.Time) (string, error) {
	id := strings.ReplaceAll(g.newID().String(), "-", "")
	return fmt.Sprintf("%s-%s-%s", invoiceNumberPrefix, issueDate.Format("20060102"), strings.ToUpper(id[:8])), nil
}

// SequenceSource reports the highest sequence number already used in a year
type SequenceSource interface {
	LastSequenceForYear(ctx context.Context, year int) (int, error)
}

// YearSequenceGenerator produces INV-yyyy-0001 style numbers. It remembers
// the numbers it handed out so a retry after a collision moves forward even
// before the previous candidate is persisted.
type YearSequenceGenerator struct {
	source SequenceSource
	mu     sync.Mutex
	issued map[int]int
}

// NewYearSequenceGenerator creates a YearSequenceGenerator backed by source
func NewYearSequenceGenerator(source SequenceSource) *YearSequenceGenerator {
	return &YearSequenceGenerator{
		source: source,
		issued: make(map[int]int),
	}
}

// Next returns the next sequence number for the year of issueDate
func (g *YearSequenceGenerator) Next(ctx context.Context, issueDate time.Time) (string, error) {
	year := issueDate.Year()
	last, err := g.source.LastSequenceForYear(ctx, year)
	if err != nil {
		return "", fmt.Errorf("failed to read invoice sequence for %d: %w", year, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	next := max(last, g.issued[year]) + 1
	g.issued[year] = next
	return FormatSequenceNumber(year, next), nil
}

// FormatSequenceNumber renders a year sequence invoice number
func FormatSequenceNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", invoiceNumberPrefix, year, seq)
}

// ParseSequenceNumber extracts the sequence from an INV-yyyy-NNNN number.
// Numbers of another year or format fail with INVALID_ARGUMENT; sequences
// that do not fit an int return the strconv error.
func ParseSequenceNumber(number string, year int) (int, error) {
	prefix := fmt.Sprintf("%s-%d-", invoiceNumberPrefix, year)
	rest, ok := strings.CutPrefix(number, prefix)
	if !ok || rest == "" || rest[0] < '0' || rest[0] > '9' {
		return 0, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Invoice number %q is not a %d sequence number", number, year)
	}
	seq, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invoice number %q: %w", number, err)
	}
	return seq, nil
}
