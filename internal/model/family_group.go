package model

import "time"

// FamilyGroup is a household within an organization.  Reservations
// and payments are attributed to a family group by name; the name is
// unique within its organization.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizationID – owning organization.
//  Name           – unique (per organization) display name.
//  RotationOrder  – position of the group in the turn-selection rotation.
//  CreatedAt      – creation timestamp.
type FamilyGroup struct {
	ID             uint64    // family_groups.id
	OrganizationID uint64    // family_groups.organization_id
	Name           string    // family_groups.name
	RotationOrder  int       // family_groups.rotation_order
	CreatedAt      time.Time // family_groups.created_at
}
