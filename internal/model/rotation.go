package model

import "time"

// SelectionPeriod is one family group's turn-selection window within
// a rotation year.  Periods are ordered by Position and must not
// overlap; extending one period pushes every later period forward by
// the same number of days while preserving order and duration.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizationID – owning organization.
//  RotationYear   – rotation the period belongs to.
//  FamilyGroup    – family group whose turn this is.
//  Position       – zero-based position in the rotation order.
//  StartDate      – first day of the selection window.
//  EndDate        – last day of the selection window (inclusive).
type SelectionPeriod struct {
	ID             uint64    // selection_periods.id
	OrganizationID uint64    // selection_periods.organization_id
	RotationYear   int       // selection_periods.rotation_year
	FamilyGroup    string    // selection_periods.family_group
	Position       int       // selection_periods.position
	StartDate      time.Time // selection_periods.start_date
	EndDate        time.Time // selection_periods.end_date
}

// SelectionPeriodExtension records that a family group's selection
// window was extended, and by implication that all later periods in
// the same rotation were shifted forward by the same delta.
//
// Fields:
//  ID              – primary key identifier.
//  OrganizationID  – owning organization.
//  RotationYear    – rotation the extension applies to.
//  FamilyGroup     – group whose window was extended.
//  OriginalEndDate – window end before the extension.
//  ExtendedUntil   – window end after the extension.
//  Reason          – why the window was extended.
//  CreatedAt       – creation timestamp.
type SelectionPeriodExtension struct {
	ID              uint64    // selection_period_extensions.id
	OrganizationID  uint64    // selection_period_extensions.organization_id
	RotationYear    int       // selection_period_extensions.rotation_year
	FamilyGroup     string    // selection_period_extensions.family_group
	OriginalEndDate time.Time // selection_period_extensions.original_end_date
	ExtendedUntil   time.Time // selection_period_extensions.extended_until
	Reason          string    // selection_period_extensions.reason
	CreatedAt       time.Time // selection_period_extensions.created_at
}
