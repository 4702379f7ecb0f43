package model

import "time"

// Notification statuses for a payment split.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// PaymentSplit is the audit record linking one source payment to one
// derived guest payment.  It is created in the same transaction as
// the paired guest payment and, apart from NotificationStatus, is
// immutable once the notification has been sent.
//
// Fields:
//  ID                  – UUID identifier.
//  OrganizationID      – owning organization.
//  OperationID         – client-generated UUID shared by all rows of one
//                        split request; a retried request with the same
//                        OperationID replays the original result.
//  SourcePaymentID     – the reduced source payment.
//  SplitPaymentID      – the derived guest payment.
//  SourceFamilyGroup   – family group of the source payment.
//  SourceUserID        – user who initiated the split.
//  SplitToFamilyGroup  – family group the guest payment is billed to.
//  SplitToUserID       – user receiving the guest payment.
//  DailyOccupancy      – the occupancy slice carved out for the guest.
//  NotificationStatus  – pending, sent or failed.
//  CreatedAt           – creation timestamp.
type PaymentSplit struct {
	ID                 string         // payment_splits.id
	OrganizationID     uint64         // payment_splits.organization_id
	OperationID        string         // payment_splits.operation_id
	SourcePaymentID    string         // payment_splits.source_payment_id
	SplitPaymentID     string         // payment_splits.split_payment_id
	SourceFamilyGroup  string         // payment_splits.source_family_group
	SourceUserID       uint64         // payment_splits.source_user_id
	SplitToFamilyGroup string         // payment_splits.split_to_family_group
	SplitToUserID      uint64         // payment_splits.split_to_user_id
	DailyOccupancy     []DayOccupancy // payment_splits.daily_occupancy (JSON column)
	NotificationStatus string         // payment_splits.notification_status
	CreatedAt          time.Time      // payment_splits.created_at
}
