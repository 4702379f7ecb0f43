package snapshot

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func TestBuildDocumentSummary(t *testing.T) {
	org := model.Organization{ID: 7, Name: "Birch Lake Cabin"}
	now := time.Date(2025, 10, 20, 8, 30, 0, 0, time.UTC)
	reservations := []model.Reservation{
		{ID: "res-1", OrganizationID: 7, FamilyGroup: "Hansen"},
		{ID: "res-2", OrganizationID: 7, FamilyGroup: "Olsen"},
	}
	payments := []model.Payment{
		{ID: "pay-1", Amount: 120, AmountPaid: 120},
		{ID: "pay-2", Amount: 80, AmountPaid: 20},
	}
	splits := []model.PaymentSplit{{ID: "split-1"}}

	doc := BuildDocument(org, 2025, model.SnapshotManual, 42, now, reservations, payments, splits)

	if doc.Metadata.OrganizationName != "Birch Lake Cabin" || doc.Metadata.SeasonYear != 2025 {
		t.Fatalf("unexpected metadata: %+v", doc.Metadata)
	}
	if doc.Metadata.SnapshotDate != "2025-10-20T08:30:00Z" {
		t.Fatalf("snapshot date should be RFC3339 UTC, got %s", doc.Metadata.SnapshotDate)
	}
	if doc.Summary.TotalReservations != 2 || doc.Summary.TotalPayments != 2 || doc.Summary.TotalPaymentSplits != 1 {
		t.Fatalf("unexpected counts: %+v", doc.Summary)
	}
	if doc.Summary.TotalAmountBilled != 200 || doc.Summary.TotalAmountPaid != 140 {
		t.Fatalf("unexpected totals: billed=%v paid=%v", doc.Summary.TotalAmountBilled, doc.Summary.TotalAmountPaid)
	}
}

func TestFilterSeason(t *testing.T) {
	reservations := []model.Reservation{{ID: "res-1"}}
	payments := []model.Payment{
		{ID: "pay-1", ReservationID: "res-1"},
		{ID: "pay-other", ReservationID: "res-other-season"},
		{ID: "pay-guest"},
		{ID: "pay-stray"},
	}
	splits := []model.PaymentSplit{
		{ID: "split-1", SourcePaymentID: "pay-1", SplitPaymentID: "pay-guest"},
		{ID: "split-other", SourcePaymentID: "pay-other", SplitPaymentID: "pay-stray"},
	}

	gotPayments, gotSplits := FilterSeason(reservations, payments, splits)

	ids := make([]string, 0, len(gotPayments))
	for _, p := range gotPayments {
		ids = append(ids, p.ID)
	}
	if len(ids) != 2 || ids[0] != "pay-1" || ids[1] != "pay-guest" {
		t.Errorf("payments = %v, want the season stay's payment and its split's guest payment", ids)
	}
	if len(gotSplits) != 1 || gotSplits[0].ID != "split-1" {
		t.Errorf("splits = %+v, want only the season split", gotSplits)
	}
}

func TestDocumentEncodeDecode(t *testing.T) {
	org := model.Organization{ID: 3, Name: "Fjell Hytte"}
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	doc := BuildDocument(org, 2025, model.SnapshotAuto, 0, now, nil, nil, nil)

	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Reserved sections are present as empty arrays, not null, so
	// older documents stay readable when those features land.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("document is not a JSON object: %v", err)
	}
	var dataSection map[string]json.RawMessage
	if err := json.Unmarshal(raw["data"], &dataSection); err != nil {
		t.Fatalf("data section: %v", err)
	}
	for _, key := range []string{"reservations", "payments", "paymentSplits", "checkinSessions", "receipts"} {
		section, ok := dataSection[key]
		if !ok {
			t.Fatalf("data section missing %q", key)
		}
		if strings.TrimSpace(string(section)) == "null" {
			t.Fatalf("data section %q must be an array, got null", key)
		}
	}
	if doc.Metadata.CreatedByUserID != 0 {
		t.Fatalf("auto snapshots carry no creator, got %d", doc.Metadata.CreatedByUserID)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Metadata != doc.Metadata {
		t.Fatalf("metadata changed through round trip: %+v vs %+v", decoded.Metadata, doc.Metadata)
	}
}

func TestObjectPath(t *testing.T) {
	got := ObjectPath(12, 2025, "abc-def")
	if got != "orgs/12/snapshots/2025/abc-def.json" {
		t.Fatalf("unexpected object path %s", got)
	}
}
