// Package snapshot builds, schedules and restores season backup
// documents.  A snapshot is a self-contained JSON file holding every
// record of one organization's season, so a season can be restored
// even after destructive edits.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// Document is the on-disk snapshot format.  Field names are part of
// the backup contract and must stay stable across releases.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Data     Data     `json:"data"`
	Summary  Summary  `json:"summary"`
}

// Metadata identifies which season the document captures and how it
// was taken.
type Metadata struct {
	OrganizationID   uint64 `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
	SeasonYear       int    `json:"seasonYear"`
	SnapshotDate     string `json:"snapshotDate"`
	SnapshotType     string `json:"snapshotType"`
	SnapshotSource   string `json:"snapshotSource"`
	CreatedByUserID  uint64 `json:"createdByUserId,omitempty"`
}

// Data holds the season's records.  Check-in sessions and receipts
// are reserved sections kept for format compatibility; they are
// written as empty arrays until those features land.
type Data struct {
	Reservations    []model.Reservation   `json:"reservations"`
	Payments        []model.Payment       `json:"payments"`
	PaymentSplits   []model.PaymentSplit  `json:"paymentSplits"`
	CheckinSessions []json.RawMessage     `json:"checkinSessions"`
	Receipts        []json.RawMessage     `json:"receipts"`
}

// Summary carries counts and money totals so a listing can show what
// a snapshot contains without downloading the data section.
type Summary struct {
	TotalReservations    int     `json:"totalReservations"`
	TotalPayments        int     `json:"totalPayments"`
	TotalPaymentSplits   int     `json:"totalPaymentSplits"`
	TotalCheckinSessions int     `json:"totalCheckinSessions"`
	TotalReceipts        int     `json:"totalReceipts"`
	TotalAmountBilled    float64 `json:"totalAmountBilled"`
	TotalAmountPaid      float64 `json:"totalAmountPaid"`
}

// FilterSeason narrows org-wide payments and splits to the captured
// season. A payment belongs when it is linked to one of the season's
// reservations; a split belongs when its source payment does, and the
// split's guest payment is carried along with it.
func FilterSeason(reservations []model.Reservation, payments []model.Payment, splits []model.PaymentSplit) ([]model.Payment, []model.PaymentSplit) {
	resIDs := make(map[string]struct{}, len(reservations))
	for _, r := range reservations {
		resIDs[r.ID] = struct{}{}
	}
	keep := make(map[string]struct{}, len(payments))
	outPayments := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if _, ok := resIDs[p.ReservationID]; p.ReservationID != "" && ok {
			keep[p.ID] = struct{}{}
			outPayments = append(outPayments, p)
		}
	}
	guestIDs := make(map[string]struct{})
	outSplits := make([]model.PaymentSplit, 0, len(splits))
	for _, s := range splits {
		if _, ok := keep[s.SourcePaymentID]; ok {
			guestIDs[s.SplitPaymentID] = struct{}{}
			outSplits = append(outSplits, s)
		}
	}
	for _, p := range payments {
		if _, ok := guestIDs[p.ID]; ok {
			outPayments = append(outPayments, p)
		}
	}
	return outPayments, outSplits
}

// BuildDocument assembles a Document from the season's records and
// computes its summary.
func BuildDocument(org model.Organization, year int, source string, createdBy uint64, now time.Time,
	reservations []model.Reservation, payments []model.Payment, splits []model.PaymentSplit) Document {

	summary := Summary{
		TotalReservations:  len(reservations),
		TotalPayments:      len(payments),
		TotalPaymentSplits: len(splits),
	}
	for _, p := range payments {
		summary.TotalAmountBilled += p.Amount + p.ManualAdjustment
		summary.TotalAmountPaid += p.AmountPaid
	}

	if reservations == nil {
		reservations = []model.Reservation{}
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	if splits == nil {
		splits = []model.PaymentSplit{}
	}

	return Document{
		Metadata: Metadata{
			OrganizationID:   org.ID,
			OrganizationName: org.Name,
			SeasonYear:       year,
			SnapshotDate:     now.UTC().Format(time.RFC3339),
			SnapshotType:     "season",
			SnapshotSource:   source,
			CreatedByUserID:  createdBy,
		},
		Data: Data{
			Reservations:    reservations,
			Payments:        payments,
			PaymentSplits:   splits,
			CheckinSessions: []json.RawMessage{},
			Receipts:        []json.RawMessage{},
		},
		Summary: summary,
	}
}

// Encode marshals the document with indentation so snapshots stay
// diffable and human-readable.
func (d Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot document previously produced by Encode.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}

// ObjectPath returns the store key for a snapshot blob.
func ObjectPath(orgID uint64, year int, snapshotID string) string {
	return fmt.Sprintf("orgs/%d/snapshots/%d/%s.json", orgID, year, snapshotID)
}
