package snapshot

import (
	"testing"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func TestDue(t *testing.T) {
	now := time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
	ago := func(h int) *time.Time {
		ts := now.Add(-time.Duration(h) * time.Hour)
		return &ts
	}

	cases := []struct {
		name      string
		frequency string
		lastAuto  *time.Time
		want      bool
	}{
		{"off never due", model.SnapshotOff, nil, false},
		{"unknown frequency never due", "hourly", nil, false},
		{"daily with no prior snapshot", model.SnapshotDaily, nil, true},
		{"daily at 22h not due", model.SnapshotDaily, ago(22), false},
		{"daily at 23h due", model.SnapshotDaily, ago(23), true},
		{"weekly at 166h not due", model.SnapshotWeekly, ago(166), false},
		{"weekly at 167h due", model.SnapshotWeekly, ago(167), true},
		{"biweekly at 335h due", model.SnapshotBiweekly, ago(335), true},
		{"monthly at 670h not due", model.SnapshotMonthly, ago(670), false},
		{"monthly at 671h due", model.SnapshotMonthly, ago(671), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Due(tc.frequency, tc.lastAuto, now); got != tc.want {
				t.Fatalf("Due(%s) = %v, want %v", tc.frequency, got, tc.want)
			}
		})
	}
}

func TestRetentionVictims(t *testing.T) {
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	meta := func(id, source string, day int) model.SnapshotMeta {
		return model.SnapshotMeta{ID: id, Source: source, CreatedAt: base.AddDate(0, 0, day)}
	}
	snaps := []model.SnapshotMeta{
		meta("auto-3", model.SnapshotAuto, 3),
		meta("manual-0", model.SnapshotManual, 0),
		meta("auto-1", model.SnapshotAuto, 1),
		meta("auto-5", model.SnapshotAuto, 5),
		meta("manual-2", model.SnapshotManual, 2),
		meta("auto-4", model.SnapshotAuto, 4),
	}

	victims := RetentionVictims(snaps, 2)
	if len(victims) != 2 {
		t.Fatalf("expected 2 victims, got %d", len(victims))
	}
	if victims[0].ID != "auto-1" || victims[1].ID != "auto-3" {
		t.Fatalf("expected oldest autos first, got %s, %s", victims[0].ID, victims[1].ID)
	}
	for _, v := range victims {
		if v.Source == model.SnapshotManual {
			t.Fatalf("manual snapshot %s selected for deletion", v.ID)
		}
	}

	if got := RetentionVictims(snaps, 4); got != nil {
		t.Fatalf("retain 4 of 4 autos should keep all, got %d victims", len(got))
	}
	if got := RetentionVictims(snaps, 0); got != nil {
		t.Fatalf("retain 0 disables retention, got %d victims", len(got))
	}
}

func TestSweepYears(t *testing.T) {
	january := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	years := SweepYears(january)
	if len(years) != 2 || years[0] != 2026 || years[1] != 2025 {
		t.Fatalf("january sweep should cover both seasons, got %v", years)
	}

	july := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	years = SweepYears(july)
	if len(years) != 1 || years[0] != 2026 {
		t.Fatalf("mid-year sweep should cover current season only, got %v", years)
	}
}
