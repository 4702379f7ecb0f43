// Package split builds the row set for a cost split: one reduced
// source payment, one guest payment per participant and one audit
// record per guest payment.  Building is pure; the handler persists
// the plan in a single database transaction so a failed split leaves
// nothing behind.
package split

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/occupancy"
)

// conservationTolerance absorbs float formatting noise when checking
// that the split conserves the original charge.
const conservationTolerance = 0.005

// ErrInvalid rejects malformed split requests before any write.
var ErrInvalid = fmt.Errorf("invalid split request")

// ErrNotConserved is returned when the reduced source amount plus all
// guest amounts does not reproduce the original pre-split charge.
var ErrNotConserved = fmt.Errorf("split amounts do not sum to the original charge")

// User is one guest participant of a split.
type User struct {
	UserID         uint64
	FamilyGroup    string
	DisplayName    string
	Amount         float64
	DailyOccupancy []model.DayOccupancy
}

// Request carries everything needed to plan a split.  OriginalAmount
// is the effective pre-split charge (computed amount plus manual
// adjustment), loaded server-side; the conservation check never
// trusts a client-supplied total.  OriginalAmountPaid and
// OriginalAdjustment are carried onto the reduced source payment so
// splitting never erases money already received or a standing
// correction.
type Request struct {
	OperationID          string
	OrganizationID       uint64
	ReservationID        string
	SourceFamilyGroup    string
	SourceUserID         uint64
	SourceAmount         float64
	SourceDailyOccupancy []model.DayOccupancy
	Users                []User
	Description          string
	DateRange            occupancy.Interval
	OriginalAmount       float64
	OriginalAmountPaid   float64
	OriginalAdjustment   float64
}

// Plan is the full row set of one split, ready to insert.  The source
// payment must become visible no later than any guest payment; the
// repository writes it first inside the transaction.
type Plan struct {
	SourcePayment model.Payment
	GuestPayments []model.Payment
	Splits        []model.PaymentSplit
}

// BuildPlan validates a split request and lays out the rows to
// insert.  All generated payments are billing-locked: their amounts
// were agreed at split time and later occupancy edits are
// record-keeping only.
func BuildPlan(req Request) (Plan, error) {
	if req.OperationID == "" {
		return Plan{}, fmt.Errorf("%w: missing operation id", ErrInvalid)
	}
	if _, err := uuid.Parse(req.OperationID); err != nil {
		return Plan{}, fmt.Errorf("%w: operation id must be a UUID", ErrInvalid)
	}
	if req.SourceFamilyGroup == "" {
		return Plan{}, fmt.Errorf("%w: missing source family group", ErrInvalid)
	}
	if len(req.Users) == 0 {
		return Plan{}, fmt.Errorf("%w: no split users", ErrInvalid)
	}
	if req.SourceAmount < 0 {
		return Plan{}, fmt.Errorf("%w: negative source amount", ErrInvalid)
	}

	// The source share keeps the carried adjustment, so it counts
	// toward conservation alongside the reduced amount.
	sum := req.SourceAmount + req.OriginalAdjustment
	names := make([]string, 0, len(req.Users))
	for _, u := range req.Users {
		if u.Amount < 0 {
			return Plan{}, fmt.Errorf("%w: negative amount for %s", ErrInvalid, u.DisplayName)
		}
		if u.FamilyGroup == "" {
			return Plan{}, fmt.Errorf("%w: missing family group for %s", ErrInvalid, u.DisplayName)
		}
		if err := occupancy.Validate(u.DailyOccupancy, req.DateRange); err != nil {
			return Plan{}, fmt.Errorf("%w: %s: %v", ErrInvalid, u.DisplayName, err)
		}
		sum += u.Amount
		names = append(names, u.DisplayName)
	}
	if err := occupancy.Validate(req.SourceDailyOccupancy, req.DateRange); err != nil {
		return Plan{}, fmt.Errorf("%w: source occupancy: %v", ErrInvalid, err)
	}
	if diff := sum - req.OriginalAmount; diff > conservationTolerance || diff < -conservationTolerance {
		return Plan{}, fmt.Errorf("%w: %.2f + splits = %.2f, original %.2f",
			ErrNotConserved, req.SourceAmount, sum, req.OriginalAmount)
	}

	source := model.Payment{
		ID:               uuid.New().String(),
		OrganizationID:   req.OrganizationID,
		FamilyGroup:      req.SourceFamilyGroup,
		Amount:           req.SourceAmount,
		AmountPaid:       req.OriginalAmountPaid,
		ManualAdjustment: req.OriginalAdjustment,
		Status:           model.PaymentDeferred,
		DailyOccupancy:   req.SourceDailyOccupancy,
		BillingLocked:    true,
		Description:      req.Description,
		Notes:            fmt.Sprintf("Split with %s", strings.Join(names, ", ")),
	}

	plan := Plan{SourcePayment: source}
	for _, u := range req.Users {
		guest := model.Payment{
			ID:             uuid.New().String(),
			OrganizationID: req.OrganizationID,
			FamilyGroup:    u.FamilyGroup,
			Amount:         u.Amount,
			Status:         model.PaymentPending,
			DailyOccupancy: u.DailyOccupancy,
			BillingLocked:  true,
			Description:    req.Description,
			Notes:          fmt.Sprintf("Share of stay split by %s", req.SourceFamilyGroup),
		}
		plan.GuestPayments = append(plan.GuestPayments, guest)
		plan.Splits = append(plan.Splits, model.PaymentSplit{
			ID:                 uuid.New().String(),
			OrganizationID:     req.OrganizationID,
			OperationID:        req.OperationID,
			SourcePaymentID:    source.ID,
			SplitPaymentID:     guest.ID,
			SourceFamilyGroup:  req.SourceFamilyGroup,
			SourceUserID:       req.SourceUserID,
			SplitToFamilyGroup: u.FamilyGroup,
			SplitToUserID:      u.UserID,
			DailyOccupancy:     u.DailyOccupancy,
			NotificationStatus: model.NotificationPending,
		})
	}
	return plan, nil
}
