package season

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/billing"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testConfig() Config {
	return Config{
		Year:  2025,
		Start: day("2025-10-01"),
		End:   day("2025-10-31"),
		Billing: billing.Config{
			Method: billing.PerPersonPerDay,
			Amount: 10,
		},
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := ResolveConfig(model.OrganizationSettings{BillingMethod: "per_person_per_night"}, 2025)
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if !cfg.Start.Equal(day("2025-10-01")) || !cfg.End.Equal(day("2025-10-31")) {
		t.Errorf("season defaults = [%v, %v], want Oct 1 - Oct 31", cfg.Start, cfg.End)
	}
	if cfg.Billing.Method != billing.PerPersonPerDay {
		t.Errorf("method = %v, want per-person-per-day (night synonym)", cfg.Billing.Method)
	}
}

func TestResolveConfigUnknownMethodFallsBack(t *testing.T) {
	cfg, err := ResolveConfig(model.OrganizationSettings{BillingMethod: "per-llama-per-day", BillingAmount: 10}, 2025)
	if err == nil {
		t.Fatal("expected unknown-method error")
	}
	// Config is still usable with the documented fallback.
	if cfg.Billing.Method != billing.PerPersonPerDay {
		t.Errorf("fallback method = %v, want per-person-per-day", cfg.Billing.Method)
	}
	if cfg.Billing.Amount != 10 {
		t.Errorf("fallback amount = %v, want 10", cfg.Billing.Amount)
	}
}

func TestComputeSummary(t *testing.T) {
	cfg := testConfig()
	groups := []model.FamilyGroup{{Name: "Hansen"}, {Name: "Olsen"}}
	reservations := []model.Reservation{
		{ID: "r1", FamilyGroup: "Hansen", StartDate: day("2025-10-06"), EndDate: day("2025-10-11"), Status: model.ReservationConfirmed},
		{ID: "r2", FamilyGroup: "Olsen", StartDate: day("2025-10-12"), EndDate: day("2025-10-15"), Status: model.ReservationCompleted},
		{ID: "r3", FamilyGroup: "Olsen", StartDate: day("2025-10-20"), EndDate: day("2025-10-22"), Status: model.ReservationCancelled},
	}
	payments := []model.Payment{
		{
			ID: "p1", ReservationID: "r1", FamilyGroup: "Hansen",
			AmountPaid: 20, Status: model.PaymentPending,
			DailyOccupancy: []model.DayOccupancy{
				{Date: "2025-10-06", Guests: 2},
				{Date: "2025-10-07", Guests: 3},
			},
		},
		{
			ID: "p2", ReservationID: "r2", FamilyGroup: "Olsen",
			Amount: 80, ManualAdjustment: 10, AmountPaid: 90,
			BillingLocked: true, Status: model.PaymentPaid,
			DailyOccupancy: []model.DayOccupancy{
				{Date: "2025-10-12", Guests: 7}, // edited post-lock, must not recompute
			},
		},
	}

	s := ComputeSummary(cfg, groups, reservations, payments)

	if len(s.Families) != 2 {
		t.Fatalf("families = %d, want 2", len(s.Families))
	}
	hansen, olsen := s.Families[0], s.Families[1]
	if hansen.FamilyGroup != "Hansen" || olsen.FamilyGroup != "Olsen" {
		t.Fatalf("family order = %s, %s", hansen.FamilyGroup, olsen.FamilyGroup)
	}

	// Hansen: occupancy-derived: (2+3) * 10 = 50 charged, 20 paid.
	if math.Abs(hansen.TotalCharged-50) > 1e-9 {
		t.Errorf("Hansen charged = %v, want 50", hansen.TotalCharged)
	}
	if math.Abs(hansen.Outstanding-30) > 1e-9 {
		t.Errorf("Hansen outstanding = %v, want 30", hansen.Outstanding)
	}
	if hansen.Nights != 5 {
		t.Errorf("Hansen nights = %d, want 5 (checkout excluded)", hansen.Nights)
	}

	// Olsen: billing locked, charge = 80 + 10 = 90 regardless of occupancy;
	// the cancelled stay is excluded.
	if olsen.Stays != 1 {
		t.Errorf("Olsen stays = %d, want 1 (cancelled excluded)", olsen.Stays)
	}
	if math.Abs(olsen.TotalCharged-90) > 1e-9 {
		t.Errorf("Olsen charged = %v, want 90 (frozen)", olsen.TotalCharged)
	}
	if math.Abs(olsen.Outstanding-0) > 1e-9 {
		t.Errorf("Olsen outstanding = %v, want 0", olsen.Outstanding)
	}

	if s.Totals.Families != 2 || s.Totals.Stays != 2 || s.Totals.Nights != 8 {
		t.Errorf("totals = %+v, want 2 families, 2 stays, 8 nights", s.Totals)
	}
	if math.Abs(s.Totals.TotalCharged-140) > 1e-9 {
		t.Errorf("total charged = %v, want 140", s.Totals.TotalCharged)
	}
	if math.Abs(s.Totals.Outstanding-30) > 1e-9 {
		t.Errorf("total outstanding = %v, want 30", s.Totals.Outstanding)
	}
}

func TestComputeSummarySeasonMembershipByCheckIn(t *testing.T) {
	cfg := testConfig()
	groups := []model.FamilyGroup{{Name: "Hansen"}}
	reservations := []model.Reservation{
		// Checks in on the season end date and runs past it: belongs.
		{ID: "r1", FamilyGroup: "Hansen", StartDate: day("2025-10-31"), EndDate: day("2025-11-03"), Status: model.ReservationConfirmed},
		// Checks in before the season and spills into it: does not.
		{ID: "r2", FamilyGroup: "Hansen", StartDate: day("2025-09-28"), EndDate: day("2025-10-04"), Status: model.ReservationConfirmed},
	}

	s := ComputeSummary(cfg, groups, reservations, nil)

	if len(s.Families) != 1 || s.Families[0].Stays != 1 {
		t.Fatalf("stays = %+v, want exactly the stay checking in on the season end", s.Families)
	}
	if len(s.Rows) != 1 || s.Rows[0].CheckIn != "2025-10-31" {
		t.Fatalf("rows = %+v, want the 2025-10-31 check-in", s.Rows)
	}
	if s.Totals.Nights != 3 {
		t.Errorf("nights = %d, want 3", s.Totals.Nights)
	}
}

func TestComputeSummaryLeavesInputOrderAlone(t *testing.T) {
	cfg := testConfig()
	groups := []model.FamilyGroup{{Name: "Hansen"}}
	reservations := []model.Reservation{
		{ID: "later", FamilyGroup: "Hansen", StartDate: day("2025-10-20"), EndDate: day("2025-10-22"), Status: model.ReservationConfirmed},
		{ID: "earlier", FamilyGroup: "Hansen", StartDate: day("2025-10-06"), EndDate: day("2025-10-08"), Status: model.ReservationConfirmed},
	}

	s := ComputeSummary(cfg, groups, reservations, nil)

	// Rows come out in check-in order without reordering the input.
	if len(s.Rows) != 2 || s.Rows[0].CheckIn != "2025-10-06" {
		t.Fatalf("rows = %+v, want check-in order", s.Rows)
	}
	if reservations[0].ID != "later" || reservations[1].ID != "earlier" {
		t.Errorf("input slice reordered: %s, %s", reservations[0].ID, reservations[1].ID)
	}
}

func TestComputeSummaryFamilyIsolation(t *testing.T) {
	cfg := testConfig()
	groups := []model.FamilyGroup{{Name: "Broken"}, {Name: "Fine"}}
	reservations := []model.Reservation{
		// End before start: malformed row, must only sink its own family.
		{ID: "bad", FamilyGroup: "Broken", StartDate: day("2025-10-10"), EndDate: day("2025-10-05"), Status: model.ReservationConfirmed},
		{ID: "ok", FamilyGroup: "Fine", StartDate: day("2025-10-06"), EndDate: day("2025-10-08"), Status: model.ReservationConfirmed},
	}
	payments := []model.Payment{
		{ID: "p", ReservationID: "ok", DailyOccupancy: []model.DayOccupancy{{Date: "2025-10-06", Guests: 1}}},
	}

	s := ComputeSummary(cfg, groups, reservations, payments)
	if len(s.Errors) != 1 || !strings.Contains(s.Errors[0], "Broken") {
		t.Fatalf("errors = %v, want one entry for Broken", s.Errors)
	}
	if len(s.Families) != 1 || s.Families[0].FamilyGroup != "Fine" {
		t.Fatalf("families = %+v, want only Fine", s.Families)
	}
	if math.Abs(s.Totals.TotalCharged-10) > 1e-9 {
		t.Errorf("total charged = %v, want 10", s.Totals.TotalCharged)
	}
}

func TestComputeSummaryDuplicatePaymentsEarliestWins(t *testing.T) {
	cfg := testConfig()
	groups := []model.FamilyGroup{{Name: "Hansen"}}
	reservations := []model.Reservation{
		{ID: "r1", FamilyGroup: "Hansen", StartDate: day("2025-10-06"), EndDate: day("2025-10-08"), Status: model.ReservationConfirmed},
	}
	early := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	payments := []model.Payment{
		{ID: "dup", ReservationID: "r1", CreatedAt: late,
			DailyOccupancy: []model.DayOccupancy{{Date: "2025-10-06", Guests: 9}}},
		{ID: "orig", ReservationID: "r1", CreatedAt: early,
			DailyOccupancy: []model.DayOccupancy{{Date: "2025-10-06", Guests: 2}}},
	}

	s := ComputeSummary(cfg, groups, reservations, payments)
	if math.Abs(s.Totals.TotalCharged-20) > 1e-9 {
		t.Errorf("total charged = %v, want 20 (earliest payment wins)", s.Totals.TotalCharged)
	}
}
