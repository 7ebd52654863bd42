package valueobject

import (
	"testing"
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	r, err := NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestNewDateRange(t *testing.T) {
	_, err := NewDateRange(date(2024, 2, 1), date(2024, 1, 1))
	assert.ErrorIs(t, err, shared.ErrInvalidDateRange)

	_, err = NewDateRange(date(2024, 1, 1), date(2024, 1, 1))
	assert.ErrorIs(t, err, shared.ErrInvalidDateRange)

	_, err = NewDateRange(time.Time{}, date(2024, 1, 1))
	assert.ErrorIs(t, err, shared.ErrInvalidDateRange)

	r := mustRange(t, date(2024, 1, 1), date(2024, 2, 1))
	assert.Equal(t, 31, r.Days())
}

func TestDateRangeOverlaps(t *testing.T) {
	jan := mustRange(t, date(2024, 1, 1), date(2024, 2, 1))

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"partial overlap", mustRange(t, date(2024, 1, 15), date(2024, 3, 1)), true},
		{"adjacent half-open", mustRange(t, date(2024, 2, 1), date(2024, 3, 1)), false},
		{"adjacent before", mustRange(t, date(2023, 12, 1), date(2024, 1, 1)), false},
		{"contained", mustRange(t, date(2024, 1, 10), date(2024, 1, 11)), true},
		{"identical", jan, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jan.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(jan))
		})
	}
}

func TestDateRangeContains(t *testing.T) {
	jan := mustRange(t, date(2024, 1, 1), date(2024, 2, 1))
	assert.True(t, jan.Contains(date(2024, 1, 1)))
	assert.True(t, jan.Contains(date(2024, 1, 31)))
	assert.False(t, jan.Contains(date(2024, 2, 1)))
	assert.False(t, jan.Contains(date(2023, 12, 31)))
}
