package split

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
)

func validRequest() Request {
	iv, _ := occupancy.NewInterval("2025-10-06", "2025-10-11")
	return Request{
		OperationID:       uuid.New().String(),
		OrganizationID:    7,
		ReservationID:     "res-1",
		SourceFamilyGroup: "Hansen",
		SourceUserID:      42,
		SourceAmount:      60,
		SourceDailyOccupancy: []model.DayOccupancy{
			{Date: "2025-10-06", Guests: 2},
		},
		Users: []User{
			{UserID: 99, FamilyGroup: "Olsen", DisplayName: "Kari Olsen", Amount: 40,
				DailyOccupancy: []model.DayOccupancy{{Date: "2025-10-07", Guests: 2}}},
		},
		Description:    "October stay",
		DateRange:      iv,
		OriginalAmount: 100,
	}
}

func TestBuildPlan(t *testing.T) {
	plan, err := BuildPlan(validRequest())
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	// $100 split with one guest at $40 leaves the source at $60.
	if math.Abs(plan.SourcePayment.Amount-60) > 1e-9 {
		t.Errorf("source amount = %v, want 60", plan.SourcePayment.Amount)
	}
	if plan.SourcePayment.Status != model.PaymentDeferred {
		t.Errorf("source status = %q, want deferred", plan.SourcePayment.Status)
	}
	if !plan.SourcePayment.BillingLocked {
		t.Error("source payment must be billing locked")
	}
	if plan.SourcePayment.ReservationID != "" {
		t.Errorf("source payment reservation = %q, want none", plan.SourcePayment.ReservationID)
	}

	if len(plan.GuestPayments) != 1 || len(plan.Splits) != 1 {
		t.Fatalf("guest payments = %d, splits = %d, want 1 and 1", len(plan.GuestPayments), len(plan.Splits))
	}
	guest, audit := plan.GuestPayments[0], plan.Splits[0]
	if math.Abs(guest.Amount-40) > 1e-9 {
		t.Errorf("guest amount = %v, want 40", guest.Amount)
	}
	if audit.SourcePaymentID != plan.SourcePayment.ID || audit.SplitPaymentID != guest.ID {
		t.Error("audit row does not reference both payment ids")
	}
	if audit.NotificationStatus != model.NotificationPending {
		t.Errorf("notification status = %q, want pending", audit.NotificationStatus)
	}

	// Conservation: source + Σ guests == original.
	total := plan.SourcePayment.Amount
	for _, g := range plan.GuestPayments {
		total += g.Amount
	}
	if math.Abs(total-100) > 1e-9 {
		t.Errorf("conserved total = %v, want 100", total)
	}
}

func TestBuildPlanCarriesPaidAndAdjustment(t *testing.T) {
	req := validRequest()
	// Effective pre-split charge is 100 computed + 10 adjustment; the
	// Hansens already paid 30 of it.
	req.OriginalAmount = 110
	req.OriginalAmountPaid = 30
	req.OriginalAdjustment = 10

	plan, err := BuildPlan(req)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if math.Abs(plan.SourcePayment.AmountPaid-30) > 1e-9 {
		t.Errorf("source amount paid = %v, want 30 (money received must survive the split)", plan.SourcePayment.AmountPaid)
	}
	if math.Abs(plan.SourcePayment.ManualAdjustment-10) > 1e-9 {
		t.Errorf("source adjustment = %v, want 10", plan.SourcePayment.ManualAdjustment)
	}

	// Conservation counts the carried adjustment toward the source share.
	total := plan.SourcePayment.Amount + plan.SourcePayment.ManualAdjustment
	for _, g := range plan.GuestPayments {
		total += g.Amount
	}
	if math.Abs(total-110) > 1e-9 {
		t.Errorf("conserved total = %v, want 110", total)
	}
}

func TestBuildPlanAdjustmentBreaksConservation(t *testing.T) {
	req := validRequest()
	// 60 + 10 carried + 40 = 110 against an original of 100.
	req.OriginalAdjustment = 10
	if _, err := BuildPlan(req); !errors.Is(err, ErrNotConserved) {
		t.Fatalf("err = %v, want ErrNotConserved", err)
	}
}

func TestBuildPlanMultipleGuests(t *testing.T) {
	req := validRequest()
	req.SourceAmount = 50
	req.Users = []User{
		{UserID: 1, FamilyGroup: "Olsen", DisplayName: "Kari", Amount: 30},
		{UserID: 2, FamilyGroup: "Berg", DisplayName: "Per", Amount: 20},
	}
	plan, err := BuildPlan(req)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.GuestPayments) != 2 || len(plan.Splits) != 2 {
		t.Fatalf("rows = %d payments, %d splits; want 2 and 2", len(plan.GuestPayments), len(plan.Splits))
	}
	if plan.Splits[0].OperationID != req.OperationID || plan.Splits[1].OperationID != req.OperationID {
		t.Error("all audit rows must share the request operation id")
	}
}

func TestBuildPlanRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{
			name:    "amounts not conserved",
			mutate:  func(r *Request) { r.SourceAmount = 70 },
			wantErr: ErrNotConserved,
		},
		{
			name:    "no split users",
			mutate:  func(r *Request) { r.Users = nil },
			wantErr: ErrInvalid,
		},
		{
			name:    "negative guest amount",
			mutate:  func(r *Request) { r.Users[0].Amount = -5 },
			wantErr: ErrInvalid,
		},
		{
			name:    "missing operation id",
			mutate:  func(r *Request) { r.OperationID = "" },
			wantErr: ErrInvalid,
		},
		{
			name:    "operation id not a uuid",
			mutate:  func(r *Request) { r.OperationID = "retry-1" },
			wantErr: ErrInvalid,
		},
		{
			name: "guest occupancy outside stay",
			mutate: func(r *Request) {
				r.Users[0].DailyOccupancy = []model.DayOccupancy{{Date: "2025-10-11", Guests: 2}}
			},
			wantErr: ErrInvalid,
		},
		{
			name:    "missing guest family group",
			mutate:  func(r *Request) { r.Users[0].FamilyGroup = "" },
			wantErr: ErrInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := BuildPlan(req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildPlan error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildPlanToleratesCentRounding(t *testing.T) {
	req := validRequest()
	req.SourceAmount = 33.33
	req.Users[0].Amount = 66.67
	req.OriginalAmount = 100.00
	if _, err := BuildPlan(req); err != nil {
		t.Errorf("BuildPlan rejected cent-rounded amounts: %v", err)
	}
}
