package valueobject

import (
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
)

// DateRange is a half-open interval [Start, End)
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange creates a range; start must be strictly before end
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, shared.NewDomainError(shared.CodeInvalidDateRange, "Start and end dates are required")
	}
	if !start.Before(end) {
		return DateRange{}, shared.NewDomainErrorf(shared.CodeInvalidDateRange,
			"Start date %s must be before end date %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return DateRange{start: start, end: end}, nil
}

// Start returns the inclusive lower bound
func (r DateRange) Start() time.Time {
	return r.start
}

// End returns the exclusive upper bound
func (r DateRange) End() time.Time {
	return r.end
}

// Contains reports whether start <= t < end
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.start) && t.Before(r.end)
}

// Overlaps reports whether the two ranges share any instant.
// Ranges that only touch at a boundary do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}

// Days returns the length of the range in whole days
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start).Hours() / 24)
}
