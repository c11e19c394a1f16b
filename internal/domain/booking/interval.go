package booking

import (
	"time"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// NewDateRange validates start < end and normalizes both to UTC.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, domain.NewValidationError("startDate and endDate are required")
	}
	if !start.Before(end) {
		return DateRange{}, domain.NewValidationError("endDate must be after startDate")
	}
	return DateRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration returns End - Start.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Overlaps reports whether r and other share at least one instant.
func (r DateRange) Overlaps(other DateRange) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Overlaps is the half-open interval intersection test. A range ending at t
// and one starting at t do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// AnyOverlap returns the first active booking in existing that overlaps
// candidate. Completed and cancelled bookings never conflict.
func AnyOverlap(candidate DateRange, existing []*Booking) (*Booking, bool) {
	for _, b := range existing {
		if b == nil || !b.Status().IsActive() {
			continue
		}
		if candidate.Overlaps(b.Period()) {
			return b, true
		}
	}
	return nil, false
}
