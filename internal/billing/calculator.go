// Package billing computes charges for stays.  All functions are
// pure; persistence and transport live elsewhere.  Money values stay
// unrounded float64 throughout; rounding happens only at
// presentation boundaries (CSV, xlsx, JSON display strings) so that
// aggregated sums do not accumulate drift.
package billing

import (
	"fmt"
	"strings"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// Method is a parsed pricing method.
type Method int

const (
	// PerPersonPerDay charges rate × guests for every occupied day.
	PerPersonPerDay Method = iota
	// PerPersonPerWeek charges rate × person-nights / 7.
	PerPersonPerWeek
	// FlatRatePerDay charges rate × nights regardless of occupancy.
	FlatRatePerDay
	// FlatRatePerWeek charges rate × nights / 7.
	FlatRatePerWeek
	// FlatRatePerSeason charges the rate once per stay.
	FlatRatePerSeason
)

// ErrUnknownMethod is returned by ParseMethod for strings that do not
// normalize to a known pricing method.  Callers decide whether to
// surface the error or fall back to PerPersonPerDay; the fallback is
// never applied silently here.
var ErrUnknownMethod = fmt.Errorf("unknown billing method")

// ParseMethod parses a raw billing-method string.  Matching is
// case-insensitive, accepts underscores or hyphens interchangeably
// and treats "night" as a synonym for "day".
func ParseMethod(raw string) (Method, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, "night", "day")
	switch s {
	case "per-person-per-day":
		return PerPersonPerDay, nil
	case "per-person-per-week":
		return PerPersonPerWeek, nil
	case "flat-rate-per-day":
		return FlatRatePerDay, nil
	case "flat-rate-per-week":
		return FlatRatePerWeek, nil
	case "flat-rate-per-season":
		return FlatRatePerSeason, nil
	}
	return PerPersonPerDay, fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
}

// String returns the canonical hyphenated form of the method.
func (m Method) String() string {
	switch m {
	case PerPersonPerDay:
		return "per-person-per-day"
	case PerPersonPerWeek:
		return "per-person-per-week"
	case FlatRatePerDay:
		return "flat-rate-per-day"
	case FlatRatePerWeek:
		return "flat-rate-per-week"
	case FlatRatePerSeason:
		return "flat-rate-per-season"
	}
	return "per-person-per-day"
}

// Config carries the pricing configuration for one organization.
// TaxRate is a percentage (7.5 means 7.5%).  DamageDeposit is held
// separately and never contributes to a charge.
type Config struct {
	Method        Method
	Amount        float64
	TaxRate       float64
	CleaningFee   float64
	PetFee        float64
	DamageDeposit float64
}

// Charge is the result of a billing calculation.
type Charge struct {
	BaseAmount  float64
	CleaningFee float64
	PetFee      float64
	Tax         float64
	Total       float64
}

// finalize applies fees and tax to a computed base amount.
func finalize(cfg Config, base float64) Charge {
	subtotal := base + cfg.CleaningFee + cfg.PetFee
	tax := subtotal * cfg.TaxRate / 100
	return Charge{
		BaseAmount:  base,
		CleaningFee: cfg.CleaningFee,
		PetFee:      cfg.PetFee,
		Tax:         tax,
		Total:       subtotal + tax,
	}
}

// CalculateFromDailyOccupancy computes the charge for a stay from a
// per-day guest-count table.  occupancy maps yyyy-mm-dd dates to
// guest counts and may cover only a subset of the stay; nights is the
// full length of the stay interval (checkout day excluded) and drives
// the flat-rate methods.  Weekly methods bill fractional weeks
// (unit count / 7, unrounded).
func CalculateFromDailyOccupancy(cfg Config, occupancy map[string]int, nights int) Charge {
	personNights := 0
	for _, guests := range occupancy {
		if guests > 0 {
			personNights += guests
		}
	}
	var base float64
	switch cfg.Method {
	case PerPersonPerDay:
		base = float64(personNights) * cfg.Amount
	case PerPersonPerWeek:
		base = float64(personNights) / 7 * cfg.Amount
	case FlatRatePerDay:
		base = float64(nights) * cfg.Amount
	case FlatRatePerWeek:
		base = float64(nights) / 7 * cfg.Amount
	case FlatRatePerSeason:
		base = cfg.Amount
	}
	return finalize(cfg, base)
}

// CalculateStay computes the charge for a stay from aggregate counts
// when no per-day table exists: nights in the stay and a single guest
// count applied uniformly.
func CalculateStay(cfg Config, nights, guests int) Charge {
	if nights < 0 {
		nights = 0
	}
	if guests < 0 {
		guests = 0
	}
	occ := make(map[string]int, 1)
	if nights > 0 {
		// A uniform stay is equivalent to one synthetic day carrying
		// all person-nights.
		occ["stay"] = nights * guests
	}
	return CalculateFromDailyOccupancy(cfg, occ, nights)
}

// ChargeForPayment resolves the effective total charge of a payment
// in priority order: a billing-locked payment is frozen at
// Amount + ManualAdjustment regardless of occupancy; an unlocked
// payment with occupancy data is recomputed from the calculator plus
// ManualAdjustment; a payment with neither is zero, meaning the
// charge is still awaiting data.
func ChargeForPayment(p model.Payment, cfg Config, nights int) float64 {
	if p.BillingLocked {
		return p.Amount + p.ManualAdjustment
	}
	if len(p.DailyOccupancy) > 0 {
		occ := make(map[string]int, len(p.DailyOccupancy))
		for _, d := range p.DailyOccupancy {
			occ[d.Date] = d.Guests
		}
		return CalculateFromDailyOccupancy(cfg, occ, nights).Total + p.ManualAdjustment
	}
	return 0
}
