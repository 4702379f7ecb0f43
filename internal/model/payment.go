package model

import "time"

// Payment statuses.  Deferred marks a charge that has been reduced by
// a cost split and is awaiting the guest payments to settle.
const (
	PaymentPending  = "pending"
	PaymentDeferred = "deferred"
	PaymentPaid     = "paid"
)

// DayOccupancy is one entry of a payment's per-day guest-count table.
// Dates use the yyyy-mm-dd form and must lie within the owning
// reservation's stay interval (checkout day excluded).
type DayOccupancy struct {
	Date   string   `json:"date"`            // calendar date, yyyy-mm-dd
	Guests int      `json:"guests"`          // non-negative guest count for the day
	Names  []string `json:"names,omitempty"` // optional guest names
}

// Payment is one billable charge, tied to zero or one reservation.
// The effective charge is resolved in priority order: when
// BillingLocked is set the charge is Amount + ManualAdjustment and
// occupancy edits never recompute it; otherwise a non-empty
// DailyOccupancy drives the billing calculator; with neither the
// charge is zero ("awaiting data", not an error).
//
// Fields:
//  ID               – UUID identifier.
//  OrganizationID   – owning organization.
//  ReservationID    – reservation the charge belongs to (empty for
//                     orphaned or split-source records).
//  FamilyGroup      – family group the charge is billed to.
//  Amount           – computed charge.
//  AmountPaid       – cumulative amount received.
//  Status           – pending, deferred or paid.
//  DailyOccupancy   – ordered per-day guest counts (may be empty).
//  BillingLocked    – freezes Amount against occupancy recomputation.
//  ManualAdjustment – post-hoc correction added to the charge.
//  Description      – human-readable charge description.
//  Notes            – free-form notes.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Payment struct {
	ID               string         // payments.id
	OrganizationID   uint64         // payments.organization_id
	ReservationID    string         // payments.reservation_id ("" when null)
	FamilyGroup      string         // payments.family_group
	Amount           float64        // payments.amount
	AmountPaid       float64        // payments.amount_paid
	Status           string         // payments.status
	DailyOccupancy   []DayOccupancy // payments.daily_occupancy (JSON column)
	BillingLocked    bool           // payments.billing_locked
	ManualAdjustment float64        // payments.manual_adjustment
	Description      string         // payments.description
	Notes            string         // payments.notes
	CreatedAt        time.Time      // payments.created_at
	UpdatedAt        time.Time      // payments.updated_at
}
