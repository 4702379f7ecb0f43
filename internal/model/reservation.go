package model

import "time"

// Reservation statuses.  A reservation moves from pending to
// confirmed when approved, to cancelled when withdrawn and to
// completed after checkout.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// Reservation records one family group's booked stay.  The stay
// interval is half-open: StartDate is the check-in day and EndDate is
// the checkout day, which is excluded from occupancy.  Payments
// reference reservations but never own them.
//
// Fields:
//  ID             – UUID identifier.
//  OrganizationID – owning organization.
//  FamilyGroup    – name of the booking family group.
//  StartDate      – check-in date (UTC midnight).
//  EndDate        – checkout date, exclusive.
//  Status         – pending, confirmed, cancelled or completed.
//  GuestCount     – expected headcount for the stay.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             string    // reservations.id
	OrganizationID uint64    // reservations.organization_id
	FamilyGroup    string    // reservations.family_group
	StartDate      time.Time // reservations.start_date
	EndDate        time.Time // reservations.end_date
	Status         string    // reservations.status
	GuestCount     int       // reservations.guest_count
	CreatedAt      time.Time // reservations.created_at
	UpdatedAt      time.Time // reservations.updated_at
}

// Nights returns the number of billable nights in the stay, i.e. the
// calendar days from StartDate up to but excluding EndDate.
func (r Reservation) Nights() int {
	n := int(r.EndDate.Sub(r.StartDate).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}
