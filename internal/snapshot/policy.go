package snapshot

import (
	"sort"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// Sweep thresholds sit one hour under the nominal interval so a sweep
// that fires a few minutes early never skips a whole cycle.
var sweepThresholds = map[string]time.Duration{
	model.SnapshotDaily:    23 * time.Hour,
	model.SnapshotWeekly:   167 * time.Hour,
	model.SnapshotBiweekly: 335 * time.Hour,
	model.SnapshotMonthly:  671 * time.Hour,
}

// Due reports whether an automatic snapshot should be taken now,
// given the organization's frequency setting and the creation time of
// the most recent automatic snapshot for the season (nil when none
// exists yet).
func Due(frequency string, lastAuto *time.Time, now time.Time) bool {
	threshold, ok := sweepThresholds[frequency]
	if !ok {
		return false
	}
	if lastAuto == nil {
		return true
	}
	return now.Sub(*lastAuto) >= threshold
}

// RetentionVictims returns the automatic snapshots that fall outside
// the retention window, oldest first.  Manual snapshots are never
// candidates regardless of age or count.  A retain value below one
// keeps everything.
func RetentionVictims(snaps []model.SnapshotMeta, retain int) []model.SnapshotMeta {
	if retain < 1 {
		return nil
	}
	auto := make([]model.SnapshotMeta, 0, len(snaps))
	for _, s := range snaps {
		if s.Source == model.SnapshotAuto {
			auto = append(auto, s)
		}
	}
	if len(auto) <= retain {
		return nil
	}
	sort.Slice(auto, func(i, j int) bool { return auto[i].CreatedAt.Before(auto[j].CreatedAt) })
	return auto[:len(auto)-retain]
}

// SweepYears lists the season years a sweep should consider at the
// given instant.  Early in the calendar year the previous season may
// still receive payments, so it stays in scope through February.
func SweepYears(now time.Time) []int {
	years := []int{now.Year()}
	if now.Month() <= time.February {
		years = append(years, now.Year()-1)
	}
	return years
}
