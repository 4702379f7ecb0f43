// Package occupancy provides date-interval arithmetic and validation
// for per-day guest-count tables.  Stay intervals are half-open: the
// checkout day is excluded from occupancy.
package occupancy

import (
	"fmt"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// DateLayout is the calendar-date form used across occupancy tables,
// exports and API payloads.
const DateLayout = "2006-01-02"

// ErrOutOfInterval is returned when an occupancy entry's date falls
// outside the owning reservation's stay interval.
var ErrOutOfInterval = fmt.Errorf("occupancy date outside stay interval")

// ErrBadEntry is returned for malformed entries: unparseable dates,
// negative guest counts or duplicate dates.
var ErrBadEntry = fmt.Errorf("invalid occupancy entry")

// Interval is a half-open stay interval [Start, End): Start is the
// check-in day, End the checkout day.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval from two yyyy-mm-dd strings.
func NewInterval(start, end string) (Interval, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Interval{}, fmt.Errorf("parse start date: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Interval{}, fmt.Errorf("parse end date: %w", err)
	}
	if e.Before(s) {
		return Interval{}, fmt.Errorf("%w: end date before start date", ErrBadEntry)
	}
	return Interval{Start: s, End: e}, nil
}

// Nights returns the number of occupancy days in the interval.
func (iv Interval) Nights() int {
	n := int(iv.End.Sub(iv.Start).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// Contains reports whether the given date lies within the interval,
// checkout day excluded.
func (iv Interval) Contains(d time.Time) bool {
	return !d.Before(iv.Start) && d.Before(iv.End)
}

// Days lists every occupancy date in the interval as yyyy-mm-dd
// strings, in order, checkout day excluded.
func (iv Interval) Days() []string {
	days := make([]string, 0, iv.Nights())
	for d := iv.Start; d.Before(iv.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// ValidateEntries checks an occupancy list in isolation.  Every entry
// must parse, carry a non-negative guest count and be unique by date.
// The first violation is returned; nothing is mutated.
func ValidateEntries(entries []model.DayOccupancy) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, err := time.Parse(DateLayout, e.Date); err != nil {
			return fmt.Errorf("%w: bad date %q", ErrBadEntry, e.Date)
		}
		if e.Guests < 0 {
			return fmt.Errorf("%w: negative guest count on %s", ErrBadEntry, e.Date)
		}
		if _, dup := seen[e.Date]; dup {
			return fmt.Errorf("%w: duplicate date %s", ErrBadEntry, e.Date)
		}
		seen[e.Date] = struct{}{}
	}
	return nil
}

// Validate checks an occupancy list against the owning stay interval:
// the entry checks of ValidateEntries plus containment in the interval.
func Validate(entries []model.DayOccupancy, iv Interval) error {
	if err := ValidateEntries(entries); err != nil {
		return err
	}
	for _, e := range entries {
		d, _ := time.Parse(DateLayout, e.Date)
		if !iv.Contains(d) {
			return fmt.Errorf("%w: %s not in [%s, %s)", ErrOutOfInterval,
				e.Date, iv.Start.Format(DateLayout), iv.End.Format(DateLayout))
		}
	}
	return nil
}

// PersonNights sums guest counts over all entries, the total
// person-nights of the stay.
func PersonNights(entries []model.DayOccupancy) int {
	total := 0
	for _, e := range entries {
		if e.Guests > 0 {
			total += e.Guests
		}
	}
	return total
}

// ToMap converts an occupancy list to the date→guests map consumed by
// the billing calculator.
func ToMap(entries []model.DayOccupancy) map[string]int {
	m := make(map[string]int, len(entries))
	for _, e := range entries {
		m[e.Date] = e.Guests
	}
	return m
}

// AverageGuests returns the mean guest count per occupied day, zero
// when the list is empty.
func AverageGuests(entries []model.DayOccupancy) float64 {
	if len(entries) == 0 {
		return 0
	}
	return float64(PersonNights(entries)) / float64(len(entries))
}
