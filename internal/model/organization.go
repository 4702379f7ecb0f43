package model

import "time"

// Membership roles within an organization.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Organization is the tenancy boundary of the application.  Every
// reservation, payment, split and snapshot belongs to exactly one
// organization, and every query against those tables is scoped by
// the organization ID.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the organization (e.g. "Lake Cabin").
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Organization struct {
	ID        uint64    // organizations.id
	Name      string    // organizations.name
	CreatedAt time.Time // organizations.created_at
	UpdatedAt time.Time // organizations.updated_at
}

// OrganizationMember links a user to an organization with a role.
// Membership is checked server-side before any tenant-scoped write.
//
// Fields:
//  OrganizationID – organization the user belongs to.
//  UserID         – member user.
//  FamilyGroup    – family group the member belongs to within the org.
//  Role           – ADMIN or MEMBER.
//  CreatedAt      – when the membership was created.
type OrganizationMember struct {
	OrganizationID uint64    // organization_members.organization_id
	UserID         uint64    // organization_members.user_id
	FamilyGroup    string    // organization_members.family_group
	Role           string    // organization_members.role
	CreatedAt      time.Time // organization_members.created_at
}

// OrganizationSettings holds per-organization configuration for
// season boundaries, billing and snapshots.  Month/day pairs are
// combined with a season year at read time; when unset the season
// defaults to Oct 1 – Oct 31.
//
// Fields:
//  OrganizationID      – owning organization.
//  SeasonStartMonth    – month the season opens (1-12, 0 = unset).
//  SeasonStartDay      – day of month the season opens.
//  SeasonEndMonth      – month the season closes.
//  SeasonEndDay        – day of month the season closes.
//  PaymentDeadlineDays – days after season end when payment is due.
//  BillingMethod       – raw billing method string (parsed by billing.ParseMethod).
//  BillingAmount       – rate for the billing method.
//  TaxRate             – percentage applied to the subtotal.
//  CleaningFee         – flat fee added to the subtotal.
//  PetFee              – flat fee added to the subtotal.
//  DamageDeposit       – refundable deposit, excluded from charges.
//  SnapshotFrequency   – off, daily, weekly, biweekly or monthly.
//  SnapshotRetention   – number of automatic snapshots kept per (org, year).
type OrganizationSettings struct {
	OrganizationID      uint64  // organization_settings.organization_id
	SeasonStartMonth    int     // organization_settings.season_start_month
	SeasonStartDay      int     // organization_settings.season_start_day
	SeasonEndMonth      int     // organization_settings.season_end_month
	SeasonEndDay        int     // organization_settings.season_end_day
	PaymentDeadlineDays int     // organization_settings.payment_deadline_days
	BillingMethod       string  // organization_settings.billing_method
	BillingAmount       float64 // organization_settings.billing_amount
	TaxRate             float64 // organization_settings.tax_rate
	CleaningFee         float64 // organization_settings.cleaning_fee
	PetFee              float64 // organization_settings.pet_fee
	DamageDeposit       float64 // organization_settings.damage_deposit
	SnapshotFrequency   string  // organization_settings.snapshot_frequency
	SnapshotRetention   int     // organization_settings.snapshot_retention
}
