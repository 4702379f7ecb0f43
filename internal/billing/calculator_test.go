package billing

import (
	"errors"
	"math"
	"testing"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Method
		wantErr bool
	}{
		{name: "canonical hyphens", raw: "per-person-per-day", want: PerPersonPerDay},
		{name: "underscores", raw: "per_person_per_day", want: PerPersonPerDay},
		{name: "night synonym", raw: "per-person-per-night", want: PerPersonPerDay},
		{name: "mixed case", raw: "Flat_Rate_Per_Week", want: FlatRatePerWeek},
		{name: "flat per night", raw: "FLAT-RATE-PER-NIGHT", want: FlatRatePerDay},
		{name: "season", raw: "flat-rate-per-season", want: FlatRatePerSeason},
		{name: "per person weekly", raw: "per_person_per_week", want: PerPersonPerWeek},
		{name: "unknown", raw: "per-pet-per-day", want: PerPersonPerDay, wantErr: true},
		{name: "empty", raw: "", want: PerPersonPerDay, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownMethod) {
				t.Errorf("ParseMethod(%q) error = %v, want ErrUnknownMethod", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCalculateFromDailyOccupancy(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		occupancy map[string]int
		nights    int
		want      Charge
	}{
		{
			name:      "per-person-per-day sums guests times rate",
			cfg:       Config{Method: PerPersonPerDay, Amount: 10},
			occupancy: map[string]int{"2025-10-06": 2, "2025-10-07": 3},
			nights:    5,
			want:      Charge{BaseAmount: 50, Total: 50},
		},
		{
			name:      "flat-rate-per-day ignores occupancy",
			cfg:       Config{Method: FlatRatePerDay, Amount: 100},
			occupancy: map[string]int{"2025-10-06": 2},
			nights:    5,
			want:      Charge{BaseAmount: 500, Total: 500},
		},
		{
			name:      "per-person-per-week bills fractional weeks",
			cfg:       Config{Method: PerPersonPerWeek, Amount: 70},
			occupancy: map[string]int{"2025-10-06": 2, "2025-10-07": 2, "2025-10-08": 3},
			nights:    3,
			// 7 person-nights / 7 * 70 = 70
			want: Charge{BaseAmount: 70, Total: 70},
		},
		{
			name:      "flat-rate-per-week bills fractional weeks",
			cfg:       Config{Method: FlatRatePerWeek, Amount: 700},
			occupancy: nil,
			nights:    10,
			want:      Charge{BaseAmount: 1000, Total: 1000},
		},
		{
			name:      "flat-rate-per-season is a single rate",
			cfg:       Config{Method: FlatRatePerSeason, Amount: 1200},
			occupancy: map[string]int{"2025-10-06": 4},
			nights:    14,
			want:      Charge{BaseAmount: 1200, Total: 1200},
		},
		{
			name:      "fees and tax applied on the subtotal",
			cfg:       Config{Method: PerPersonPerDay, Amount: 10, CleaningFee: 40, PetFee: 10, TaxRate: 10},
			occupancy: map[string]int{"2025-10-06": 5},
			nights:    1,
			// base 50 + cleaning 40 + pet 10 = 100, tax 10, total 110
			want: Charge{BaseAmount: 50, CleaningFee: 40, PetFee: 10, Tax: 10, Total: 110},
		},
		{
			name:      "negative guest counts ignored",
			cfg:       Config{Method: PerPersonPerDay, Amount: 10},
			occupancy: map[string]int{"2025-10-06": -3, "2025-10-07": 2},
			nights:    2,
			want:      Charge{BaseAmount: 20, Total: 20},
		},
		{
			name:      "empty occupancy yields zero base",
			cfg:       Config{Method: PerPersonPerDay, Amount: 10},
			occupancy: map[string]int{},
			nights:    5,
			want:      Charge{BaseAmount: 0, Total: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFromDailyOccupancy(tt.cfg, tt.occupancy, tt.nights)
			assertCharge(t, got, tt.want)
		})
	}
}

func TestCalculateFromDailyOccupancyMonotonic(t *testing.T) {
	cfg := Config{Method: PerPersonPerDay, Amount: 12.5, CleaningFee: 30, TaxRate: 8}
	occ := map[string]int{"2025-10-06": 2, "2025-10-07": 3, "2025-10-08": 1}
	before := CalculateFromDailyOccupancy(cfg, occ, 3)
	occ["2025-10-07"] = 4
	after := CalculateFromDailyOccupancy(cfg, occ, 3)
	if after.Total <= before.Total {
		t.Errorf("increasing a day's guests did not increase total: before %v, after %v", before.Total, after.Total)
	}
	if before.Total < 0 || after.Total < 0 {
		t.Errorf("totals must be non-negative: %v, %v", before.Total, after.Total)
	}
}

func TestCalculateStay(t *testing.T) {
	// 5 nights × 3 guests at $10/person/night = $150.
	got := CalculateStay(Config{Method: PerPersonPerDay, Amount: 10}, 5, 3)
	assertCharge(t, got, Charge{BaseAmount: 150, Total: 150})

	// Flat weekly rate: 7 nights = exactly one week.
	got = CalculateStay(Config{Method: FlatRatePerWeek, Amount: 900}, 7, 2)
	assertCharge(t, got, Charge{BaseAmount: 900, Total: 900})

	// Degenerate inputs clamp to zero.
	got = CalculateStay(Config{Method: PerPersonPerDay, Amount: 10}, -2, 4)
	assertCharge(t, got, Charge{})
}

func TestChargeForPayment(t *testing.T) {
	cfg := Config{Method: PerPersonPerDay, Amount: 10}

	t.Run("locked payment is frozen", func(t *testing.T) {
		p := model.Payment{
			Amount:           80,
			ManualAdjustment: 10,
			BillingLocked:    true,
			DailyOccupancy: []model.DayOccupancy{
				{Date: "2025-10-06", Guests: 9},
				{Date: "2025-10-07", Guests: 9},
			},
		}
		if got := ChargeForPayment(p, cfg, 2); math.Abs(got-90) > 1e-9 {
			t.Errorf("ChargeForPayment = %v, want 90 (frozen amount + adjustment)", got)
		}
	})

	t.Run("unlocked payment recomputes from occupancy", func(t *testing.T) {
		p := model.Payment{
			Amount:           999, // stale, must be ignored
			ManualAdjustment: 5,
			DailyOccupancy: []model.DayOccupancy{
				{Date: "2025-10-06", Guests: 2},
				{Date: "2025-10-07", Guests: 3},
			},
		}
		if got := ChargeForPayment(p, cfg, 2); math.Abs(got-55) > 1e-9 {
			t.Errorf("ChargeForPayment = %v, want 55", got)
		}
	})

	t.Run("no lock and no occupancy means awaiting data", func(t *testing.T) {
		p := model.Payment{Amount: 120, ManualAdjustment: 10}
		if got := ChargeForPayment(p, cfg, 4); got != 0 {
			t.Errorf("ChargeForPayment = %v, want 0", got)
		}
	})
}

// The stored amount is the calculator output alone; the manual
// adjustment lives in its own column. Locking must freeze the same
// effective charge the unlocked payment had, counting the adjustment
// exactly once.
func TestChargeForPaymentLockAfterSync(t *testing.T) {
	cfg := Config{Method: PerPersonPerDay, Amount: 10}
	occ := []model.DayOccupancy{
		{Date: "2025-10-06", Guests: 2},
		{Date: "2025-10-07", Guests: 3},
	}
	charge := CalculateFromDailyOccupancy(cfg, map[string]int{"2025-10-06": 2, "2025-10-07": 3}, 2)
	if math.Abs(charge.Total-50) > 1e-9 {
		t.Fatalf("computed charge = %v, want 50", charge.Total)
	}

	p := model.Payment{Amount: charge.Total, ManualAdjustment: 10, DailyOccupancy: occ}
	if got := ChargeForPayment(p, cfg, 2); math.Abs(got-60) > 1e-9 {
		t.Errorf("unlocked charge = %v, want 60", got)
	}

	p.BillingLocked = true
	if got := ChargeForPayment(p, cfg, 2); math.Abs(got-60) > 1e-9 {
		t.Errorf("locked charge = %v, want 60 (adjustment counted once)", got)
	}
}

func assertCharge(t *testing.T, got, want Charge) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(got.BaseAmount-want.BaseAmount) > eps {
		t.Errorf("BaseAmount = %v, want %v", got.BaseAmount, want.BaseAmount)
	}
	if math.Abs(got.CleaningFee-want.CleaningFee) > eps {
		t.Errorf("CleaningFee = %v, want %v", got.CleaningFee, want.CleaningFee)
	}
	if math.Abs(got.PetFee-want.PetFee) > eps {
		t.Errorf("PetFee = %v, want %v", got.PetFee, want.PetFee)
	}
	if math.Abs(got.Tax-want.Tax) > eps {
		t.Errorf("Tax = %v, want %v", got.Tax, want.Tax)
	}
	if math.Abs(got.Total-want.Total) > eps {
		t.Errorf("Total = %v, want %v", got.Total, want.Total)
	}
}
