// Package queue defines message payloads exchanged over the message broker.
package queue

// SplitCreatedEvent is published when a stay's cost is split between
// family groups. It contains enough information for the notification
// consumer to draft the mail without querying the primary database.
type SplitCreatedEvent struct {
	SplitID           string  `json:"split_id"`
	OrganizationID    uint64  `json:"organization_id"`
	OperationID       string  `json:"operation_id"`
	SourcePaymentID   string  `json:"source_payment_id"`
	SplitPaymentID    string  `json:"split_payment_id"`
	SourceFamilyGroup string  `json:"source_family_group"`
	TargetFamilyGroup string  `json:"target_family_group"`
	TargetUserID      uint64  `json:"target_user_id"`
	Amount            float64 `json:"amount"`
	Description       string  `json:"description"`
	CreatedAt         string  `json:"created_at"`
}
