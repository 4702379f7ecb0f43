// Package season computes per-family and organization-wide billing
// summaries for one season year, and exports them as CSV or xlsx.
// Computation is pure: handlers load the rows, this package folds
// them.  Sums stay unrounded; rounding happens in the exporters.
package season

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/billing"
	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
)

// Config holds the resolved boundaries and pricing for one season.
type Config struct {
	Year            int
	Start           time.Time
	End             time.Time
	PaymentDeadline time.Time
	Billing         billing.Config
}

// ResolveConfig combines organization settings with a season year.
// Unconfigured boundaries default to Oct 1 – Oct 31.  An unknown
// billing method falls back to per-person-per-day and the wrapped
// billing.ErrUnknownMethod is returned alongside the usable config so
// the caller can log it; the config is always valid.
func ResolveConfig(s model.OrganizationSettings, year int) (Config, error) {
	startMonth, startDay := s.SeasonStartMonth, s.SeasonStartDay
	endMonth, endDay := s.SeasonEndMonth, s.SeasonEndDay
	if startMonth < 1 || startMonth > 12 {
		startMonth, startDay = 10, 1
	}
	if endMonth < 1 || endMonth > 12 {
		endMonth, endDay = 10, 31
	}
	if startDay < 1 {
		startDay = 1
	}
	if endDay < 1 {
		endDay = 1
	}
	start := time.Date(year, time.Month(startMonth), startDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(endMonth), endDay, 0, 0, 0, 0, time.UTC)

	method, err := billing.ParseMethod(s.BillingMethod)
	cfg := Config{
		Year:            year,
		Start:           start,
		End:             end,
		PaymentDeadline: end.AddDate(0, 0, s.PaymentDeadlineDays),
		Billing: billing.Config{
			Method:        method,
			Amount:        s.BillingAmount,
			TaxRate:       s.TaxRate,
			CleaningFee:   s.CleaningFee,
			PetFee:        s.PetFee,
			DamageDeposit: s.DamageDeposit,
		},
	}
	if err != nil {
		return cfg, fmt.Errorf("resolve season config: %w", err)
	}
	return cfg, nil
}

// StayRow is one reservation's line in the season view and exports.
type StayRow struct {
	FamilyGroup      string  `json:"family_group"`
	CheckIn          string  `json:"check_in"`
	CheckOut         string  `json:"check_out"`
	Nights           int     `json:"nights"`
	Status           string  `json:"status"`
	BaseCharge       float64 `json:"base_charge"`
	TotalCharge      float64 `json:"total_charge"`
	AmountPaid       float64 `json:"amount_paid"`
	BalanceDue       float64 `json:"balance_due"`
	PaymentStatus    string  `json:"payment_status"`
	AverageOccupancy float64 `json:"average_occupancy"`
}

// FamilySummary aggregates one family group's stays for the season.
type FamilySummary struct {
	FamilyGroup  string  `json:"family_group"`
	Stays        int     `json:"stays"`
	Nights       int     `json:"nights"`
	TotalCharged float64 `json:"total_charged"`
	TotalPaid    float64 `json:"total_paid"`
	Outstanding  float64 `json:"outstanding"`
}

// Totals aggregates across all family groups.
type Totals struct {
	Families     int     `json:"families"`
	Stays        int     `json:"stays"`
	Nights       int     `json:"nights"`
	TotalCharged float64 `json:"total_charged"`
	TotalPaid    float64 `json:"total_paid"`
	Outstanding  float64 `json:"outstanding"`
}

// Summary is the full season view.  Errors lists family groups whose
// rows could not be computed; their stays are excluded from totals
// but never abort the rest of the summary.
type Summary struct {
	Config   Config          `json:"config"`
	Families []FamilySummary `json:"families"`
	Rows     []StayRow       `json:"rows"`
	Totals   Totals          `json:"totals"`
	Errors   []string        `json:"errors,omitempty"`
}

// ComputeSummary folds reservations and payments into a season
// summary.  Reservations outside the season (check-in not within
// [cfg.Start, cfg.End]) and cancelled ones are dropped; everything is
// org-scoped by the caller.  At most one payment is expected per
// reservation; when
// duplicates slip through, the earliest row wins and a warning is
// logged (write-time uniqueness is the real guard, see the payment
// repository).
func ComputeSummary(cfg Config, groups []model.FamilyGroup, reservations []model.Reservation, payments []model.Payment) Summary {
	byReservation := make(map[string]model.Payment, len(payments))
	for _, p := range payments {
		if p.ReservationID == "" {
			continue
		}
		if prev, ok := byReservation[p.ReservationID]; ok {
			slog.Warn("duplicate payment for reservation, keeping earliest",
				"reservation_id", p.ReservationID, "kept", prev.ID, "dropped", p.ID)
			if p.CreatedAt.Before(prev.CreatedAt) {
				byReservation[p.ReservationID] = p
			}
			continue
		}
		byReservation[p.ReservationID] = p
	}

	byFamily := make(map[string][]model.Reservation)
	for _, r := range reservations {
		if r.Status == model.ReservationCancelled {
			continue
		}
		// Season membership goes by check-in date, inclusive of both
		// boundaries. A stay spilling past the season end still
		// belongs; one starting before the season does not.
		if !cfg.Start.IsZero() && (r.StartDate.Before(cfg.Start) || r.StartDate.After(cfg.End)) {
			continue
		}
		byFamily[r.FamilyGroup] = append(byFamily[r.FamilyGroup], r)
	}

	sorted := make([]model.FamilyGroup, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var out Summary
	out.Config = cfg
	for _, g := range sorted {
		fs, rows, err := computeFamily(cfg, g.Name, byFamily[g.Name], byReservation)
		if err != nil {
			slog.Warn("season summary: family group skipped", "family_group", g.Name, "error", err)
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", g.Name, err))
			continue
		}
		out.Families = append(out.Families, fs)
		out.Rows = append(out.Rows, rows...)
		out.Totals.Stays += fs.Stays
		out.Totals.Nights += fs.Nights
		out.Totals.TotalCharged += fs.TotalCharged
		out.Totals.TotalPaid += fs.TotalPaid
	}
	out.Totals.Families = len(out.Families)
	out.Totals.Outstanding = out.Totals.TotalCharged - out.Totals.TotalPaid
	return out
}

// computeFamily builds one family group's summary and stay rows.  Any
// malformed reservation fails the whole family so the caller can
// report it without poisoning other groups.
func computeFamily(cfg Config, name string, reservations []model.Reservation, payments map[string]model.Payment) (FamilySummary, []StayRow, error) {
	fs := FamilySummary{FamilyGroup: name}
	rows := make([]StayRow, 0, len(reservations))
	// Sort a copy; the caller's slice order is not ours to change.
	ordered := make([]model.Reservation, len(reservations))
	copy(ordered, reservations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartDate.Before(ordered[j].StartDate) })
	for _, r := range ordered {
		if r.EndDate.Before(r.StartDate) {
			return FamilySummary{}, nil, fmt.Errorf("reservation %s has end date before start date", r.ID)
		}
		nights := r.Nights()
		row := StayRow{
			FamilyGroup: name,
			CheckIn:     r.StartDate.Format(occupancy.DateLayout),
			CheckOut:    r.EndDate.Format(occupancy.DateLayout),
			Nights:      nights,
			Status:      r.Status,
		}
		if p, ok := payments[r.ID]; ok {
			charge := stayCharge(p, cfg.Billing, nights)
			row.BaseCharge = charge.BaseAmount
			row.TotalCharge = billing.ChargeForPayment(p, cfg.Billing, nights)
			row.AmountPaid = p.AmountPaid
			row.BalanceDue = row.TotalCharge - p.AmountPaid
			row.PaymentStatus = p.Status
			row.AverageOccupancy = occupancy.AverageGuests(p.DailyOccupancy)
		}
		fs.Stays++
		fs.Nights += nights
		fs.TotalCharged += row.TotalCharge
		fs.TotalPaid += row.AmountPaid
		rows = append(rows, row)
	}
	fs.Outstanding = fs.TotalCharged - fs.TotalPaid
	return fs, rows, nil
}

// stayCharge exposes the charge breakdown for a payment, mirroring
// billing.ChargeForPayment's priority order but keeping the parts.
func stayCharge(p model.Payment, cfg billing.Config, nights int) billing.Charge {
	if p.BillingLocked {
		return billing.Charge{BaseAmount: p.Amount, Total: p.Amount + p.ManualAdjustment}
	}
	if len(p.DailyOccupancy) > 0 {
		return billing.CalculateFromDailyOccupancy(cfg, occupancy.ToMap(p.DailyOccupancy), nights)
	}
	return billing.Charge{}
}
