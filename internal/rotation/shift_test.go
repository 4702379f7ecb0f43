package rotation

import (
	"testing"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func periods() []model.SelectionPeriod {
	return []model.SelectionPeriod{
		{FamilyGroup: "Hansen", Position: 0, StartDate: day("2025-03-01"), EndDate: day("2025-03-07")},
		{FamilyGroup: "Olsen", Position: 1, StartDate: day("2025-03-08"), EndDate: day("2025-03-14")},
		{FamilyGroup: "Berg", Position: 2, StartDate: day("2025-03-15"), EndDate: day("2025-03-21")},
	}
}

func TestShiftSubsequentPeriods(t *testing.T) {
	out := ShiftSubsequentPeriods(periods(), 0, 3)

	// Extended period keeps its start, end moves out by 3 days.
	if !out[0].StartDate.Equal(day("2025-03-01")) {
		t.Errorf("extended period start moved: %v", out[0].StartDate)
	}
	if !out[0].EndDate.Equal(day("2025-03-10")) {
		t.Errorf("extended period end = %v, want 2025-03-10", out[0].EndDate)
	}

	// Subsequent periods shift whole, durations unchanged.
	if !out[1].StartDate.Equal(day("2025-03-11")) || !out[1].EndDate.Equal(day("2025-03-17")) {
		t.Errorf("second period = [%v, %v], want [2025-03-11, 2025-03-17]", out[1].StartDate, out[1].EndDate)
	}
	if !out[2].StartDate.Equal(day("2025-03-18")) || !out[2].EndDate.Equal(day("2025-03-24")) {
		t.Errorf("third period = [%v, %v], want [2025-03-18, 2025-03-24]", out[2].StartDate, out[2].EndDate)
	}

	for i, p := range out {
		origDur := periods()[i].EndDate.Sub(periods()[i].StartDate)
		if i > 0 && p.EndDate.Sub(p.StartDate) != origDur {
			t.Errorf("period %d duration changed", i)
		}
		if i > 0 && !out[i-1].EndDate.Before(p.StartDate.AddDate(0, 0, 1)) {
			t.Errorf("period %d overlaps its predecessor", i)
		}
	}
}

func TestShiftFromMiddle(t *testing.T) {
	out := ShiftSubsequentPeriods(periods(), 1, 2)
	// First period untouched.
	if !out[0].EndDate.Equal(day("2025-03-07")) {
		t.Errorf("first period changed: %v", out[0].EndDate)
	}
	if !out[1].EndDate.Equal(day("2025-03-16")) {
		t.Errorf("extended middle end = %v, want 2025-03-16", out[1].EndDate)
	}
	if !out[2].StartDate.Equal(day("2025-03-17")) {
		t.Errorf("last period start = %v, want 2025-03-17", out[2].StartDate)
	}
}

func TestShiftNoopCases(t *testing.T) {
	orig := periods()
	for _, tc := range []struct {
		name      string
		fromIndex int
		delta     int
	}{
		{"zero delta", 0, 0},
		{"negative delta", 1, -4},
		{"index out of range", 5, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := ShiftSubsequentPeriods(periods(), tc.fromIndex, tc.delta)
			for i := range out {
				if !out[i].StartDate.Equal(orig[i].StartDate) || !out[i].EndDate.Equal(orig[i].EndDate) {
					t.Errorf("period %d changed on %s", i, tc.name)
				}
			}
		})
	}
}

func TestShiftSortsByPosition(t *testing.T) {
	shuffled := []model.SelectionPeriod{periods()[2], periods()[0], periods()[1]}
	out := ShiftSubsequentPeriods(shuffled, 0, 1)
	if out[0].FamilyGroup != "Hansen" || out[2].FamilyGroup != "Berg" {
		t.Errorf("output not ordered by position: %v, %v", out[0].FamilyGroup, out[2].FamilyGroup)
	}
}
