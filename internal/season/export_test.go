package season

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"testing"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

func exportFixture(t *testing.T) Summary {
	t.Helper()
	cfg := testConfig()
	groups := []model.FamilyGroup{{Name: "Hansen"}, {Name: "Olsen"}}
	reservations := []model.Reservation{
		{ID: "r1", FamilyGroup: "Hansen", StartDate: day("2025-10-06"), EndDate: day("2025-10-11"), Status: model.ReservationConfirmed},
		{ID: "r2", FamilyGroup: "Olsen", StartDate: day("2025-10-12"), EndDate: day("2025-10-15"), Status: model.ReservationCompleted},
	}
	payments := []model.Payment{
		{ID: "p1", ReservationID: "r1", AmountPaid: 20.5, Status: model.PaymentPending,
			DailyOccupancy: []model.DayOccupancy{{Date: "2025-10-06", Guests: 2}, {Date: "2025-10-07", Guests: 3}}},
		{ID: "p2", ReservationID: "r2", Amount: 80.25, ManualAdjustment: 10, AmountPaid: 90.25,
			BillingLocked: true, Status: model.PaymentPaid},
	}
	return ComputeSummary(cfg, groups, reservations, payments)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	s := exportFixture(t)
	opts := ExportOptions{IncludeCharges: true, IncludePayments: true, IncludeOccupancy: true}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, s, opts); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse csv: %v", err)
	}
	// header + 2 stays + TOTALS
	if len(records) != 4 {
		t.Fatalf("rows = %d, want 4", len(records))
	}

	header := records[0]
	wantHeader := []string{
		"Family Group", "Check-In Date", "Check-Out Date", "Nights", "Status",
		"Base Charge", "Total Charges", "Amount Paid", "Balance Due", "Payment Status",
		"Average Occupancy",
	}
	for i := range wantHeader {
		if header[i] != wantHeader[i] {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], wantHeader[i])
		}
	}

	// Re-summing the parsed per-stay money cells must reproduce the
	// aggregation totals to the cent.
	chargedIdx, paidIdx := 6, 7
	var charged, paid float64
	for _, rec := range records[1:3] {
		c, err := strconv.ParseFloat(rec[chargedIdx], 64)
		if err != nil {
			t.Fatalf("parse charged cell %q: %v", rec[chargedIdx], err)
		}
		p, err := strconv.ParseFloat(rec[paidIdx], 64)
		if err != nil {
			t.Fatalf("parse paid cell %q: %v", rec[paidIdx], err)
		}
		charged += c
		paid += p
	}
	if math.Abs(charged-round2(s.Totals.TotalCharged)) > 0.005 {
		t.Errorf("csv charged sum = %v, totals = %v", charged, s.Totals.TotalCharged)
	}
	if math.Abs(paid-round2(s.Totals.TotalPaid)) > 0.005 {
		t.Errorf("csv paid sum = %v, totals = %v", paid, s.Totals.TotalPaid)
	}

	totals := records[3]
	if totals[0] != "TOTALS" {
		t.Errorf("trailing row = %q, want TOTALS", totals[0])
	}
	gotCharged, err := strconv.ParseFloat(totals[chargedIdx], 64)
	if err != nil {
		t.Fatalf("parse totals charged %q: %v", totals[chargedIdx], err)
	}
	if math.Abs(gotCharged-round2(s.Totals.TotalCharged)) > 0.005 {
		t.Errorf("TOTALS charged = %v, want %v", gotCharged, s.Totals.TotalCharged)
	}

	// Dates stay yyyy-mm-dd.
	if records[1][1] != "2025-10-06" || records[1][2] != "2025-10-11" {
		t.Errorf("date cells = %q, %q", records[1][1], records[1][2])
	}
}

func TestWriteCSVColumnOptions(t *testing.T) {
	s := exportFixture(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, s, ExportOptions{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse csv: %v", err)
	}
	if len(records[0]) != 5 {
		t.Errorf("minimal header width = %d, want 5", len(records[0]))
	}

	buf.Reset()
	if err := WriteCSV(&buf, s, ExportOptions{IncludePayments: true}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err = csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse csv: %v", err)
	}
	if len(records[0]) != 8 {
		t.Errorf("payments header width = %d, want 8", len(records[0]))
	}
	if records[0][5] != "Amount Paid" {
		t.Errorf("column 5 = %q, want Amount Paid", records[0][5])
	}
}

func TestWriteXLSX(t *testing.T) {
	s := exportFixture(t)
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, s, ExportOptions{IncludeCharges: true, IncludePayments: true}); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty xlsx output")
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Error("output does not look like a zip archive")
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
