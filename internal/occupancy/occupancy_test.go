package occupancy

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func TestIntervalDays(t *testing.T) {
	iv, err := NewInterval("2025-10-06", "2025-10-11")
	if err != nil {
		t.Fatalf("NewInterval: %v", err)
	}
	want := []string{"2025-10-06", "2025-10-07", "2025-10-08", "2025-10-09", "2025-10-10"}
	if got := iv.Days(); !reflect.DeepEqual(got, want) {
		t.Errorf("Days() = %v, want %v (checkout day excluded)", got, want)
	}
	if got := iv.Nights(); got != 5 {
		t.Errorf("Nights() = %d, want 5", got)
	}
}

func TestNewIntervalErrors(t *testing.T) {
	if _, err := NewInterval("2025-10-11", "2025-10-06"); err == nil {
		t.Error("expected error for end before start")
	}
	if _, err := NewInterval("10/06/2025", "2025-10-11"); err == nil {
		t.Error("expected error for bad date format")
	}
}

func TestValidate(t *testing.T) {
	iv, _ := NewInterval("2025-10-06", "2025-10-11")
	tests := []struct {
		name    string
		entries []model.DayOccupancy
		wantErr error
	}{
		{
			name: "all entries in range",
			entries: []model.DayOccupancy{
				{Date: "2025-10-06", Guests: 2},
				{Date: "2025-10-10", Guests: 4},
			},
		},
		{
			name:    "checkout day rejected",
			entries: []model.DayOccupancy{{Date: "2025-10-11", Guests: 2}},
			wantErr: ErrOutOfInterval,
		},
		{
			name:    "date before check-in rejected",
			entries: []model.DayOccupancy{{Date: "2025-10-05", Guests: 2}},
			wantErr: ErrOutOfInterval,
		},
		{
			name:    "negative guests rejected",
			entries: []model.DayOccupancy{{Date: "2025-10-07", Guests: -1}},
			wantErr: ErrBadEntry,
		},
		{
			name: "duplicate date rejected",
			entries: []model.DayOccupancy{
				{Date: "2025-10-07", Guests: 2},
				{Date: "2025-10-07", Guests: 3},
			},
			wantErr: ErrBadEntry,
		},
		{
			name:    "unparseable date rejected",
			entries: []model.DayOccupancy{{Date: "Oct 7 2025", Guests: 2}},
			wantErr: ErrBadEntry,
		},
		{
			name:    "empty list is valid",
			entries: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries, iv)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPersonNightsAndAverage(t *testing.T) {
	entries := []model.DayOccupancy{
		{Date: "2025-10-06", Guests: 2},
		{Date: "2025-10-07", Guests: 3},
		{Date: "2025-10-08", Guests: 4},
	}
	if got := PersonNights(entries); got != 9 {
		t.Errorf("PersonNights = %d, want 9", got)
	}
	if got := AverageGuests(entries); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("AverageGuests = %v, want 3.0", got)
	}
	if got := AverageGuests(nil); got != 0 {
		t.Errorf("AverageGuests(nil) = %v, want 0", got)
	}
}
