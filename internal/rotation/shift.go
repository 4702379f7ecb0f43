// Package rotation implements the turn-selection rotation: ordered
// per-family selection windows and the cascading date shift applied
// when one window is extended.  The shift is pure so it can be tested
// apart from the database writes that persist it.
package rotation

import (
	"sort"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// ShiftSubsequentPeriods returns a copy of periods where every period
// after fromIndex (by rotation position) is moved forward by deltaDays.
// The period at fromIndex itself has only its end date extended by
// deltaDays: its start is fixed, that window grew.  Relative order
// and every other period's duration are preserved.  A non-positive
// delta returns the input unchanged.
func ShiftSubsequentPeriods(periods []model.SelectionPeriod, fromIndex, deltaDays int) []model.SelectionPeriod {
	out := make([]model.SelectionPeriod, len(periods))
	copy(out, periods)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	if deltaDays <= 0 || fromIndex < 0 || fromIndex >= len(out) {
		return out
	}
	out[fromIndex].EndDate = out[fromIndex].EndDate.AddDate(0, 0, deltaDays)
	for i := fromIndex + 1; i < len(out); i++ {
		out[i].StartDate = out[i].StartDate.AddDate(0, 0, deltaDays)
		out[i].EndDate = out[i].EndDate.AddDate(0, 0, deltaDays)
	}
	return out
}
