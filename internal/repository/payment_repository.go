package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// PaymentRepo provides access to billing payments. A payment tracks
// what one family group owes for a stay, including the per-day
// occupancy that the charge was computed from. The daily_occupancy
// column is JSON; an empty list is stored as NULL. All queries are
// scoped by organization id.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, organization_id, reservation_id, family_group, amount, amount_paid, status,
	daily_occupancy, billing_locked, manual_adjustment, description, notes, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var (
		p             model.Payment
		reservationID sql.NullString
		occupancy     sql.NullString
		notes         sql.NullString
	)
	err := row.Scan(&p.ID, &p.OrganizationID, &reservationID, &p.FamilyGroup,
		&p.Amount, &p.AmountPaid, &p.Status, &occupancy, &p.BillingLocked,
		&p.ManualAdjustment, &p.Description, &notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if reservationID.Valid {
		p.ReservationID = reservationID.String
	}
	if notes.Valid {
		p.Notes = notes.String
	}
	if occupancy.Valid && occupancy.String != "" {
		if err := json.Unmarshal([]byte(occupancy.String), &p.DailyOccupancy); err != nil {
			return p, err
		}
	}
	return p, nil
}

func occupancyJSON(occ []model.DayOccupancy) (any, error) {
	if len(occ) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(occ)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// Create inserts a payment. A second payment for the same reservation
// violates the unique key and returns ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	occ, err := occupancyJSON(p.DailyOccupancy)
	if err != nil {
		return err
	}
	const q = `INSERT INTO payments (id, organization_id, reservation_id, family_group, amount, amount_paid,
	             status, daily_occupancy, billing_locked, manual_adjustment, description, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		p.ID, p.OrganizationID, nullableID(p.ReservationID), p.FamilyGroup, p.Amount, p.AmountPaid,
		p.Status, occ, p.BillingLocked, p.ManualAdjustment, p.Description, p.Notes); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+paymentCols+" FROM payments WHERE id = ?", p.ID)
	got, err := scanPayment(row)
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// CreateTx is Create within an existing transaction, used by the split
// orchestrator so source and guest payments commit atomically.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	occ, err := occupancyJSON(p.DailyOccupancy)
	if err != nil {
		return err
	}
	const q = `INSERT INTO payments (id, organization_id, reservation_id, family_group, amount, amount_paid,
	             status, daily_occupancy, billing_locked, manual_adjustment, description, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		p.ID, p.OrganizationID, nullableID(p.ReservationID), p.FamilyGroup, p.Amount, p.AmountPaid,
		p.Status, occ, p.BillingLocked, p.ManualAdjustment, p.Description, p.Notes); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// DeleteTx removes a payment within the caller's transaction. It is
// used by the split orchestrator to supersede the original stay
// payment with the split's source payment.
func (r *PaymentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, orgID uint64, id string) error {
	result, err := tx.ExecContext(ctx,
		"DELETE FROM payments WHERE id=? AND organization_id=?", id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a payment within the organization.
func (r *PaymentRepo) GetByID(ctx context.Context, orgID uint64, id string) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE id = ? AND organization_id = ?", id, orgID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// GetByReservation returns the payment attached to a reservation. The
// unique key prevents duplicates at write time; ordering by creation
// time keeps reads deterministic against legacy rows that predate it.
func (r *PaymentRepo) GetByReservation(ctx context.Context, orgID uint64, reservationID string) (model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE reservation_id = ? AND organization_id = ? ORDER BY created_at, id LIMIT 1",
		reservationID, orgID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// ListByOrg returns all payments of an organization ordered by
// creation time.
func (r *PaymentRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE organization_id = ? ORDER BY created_at, id", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateOccupancyAndAmount replaces the daily occupancy and the
// computed amount in one statement. Callers check the billing lock
// before recomputing; the WHERE clause re-checks it so a concurrent
// lock cannot be overwritten.
func (r *PaymentRepo) UpdateOccupancyAndAmount(ctx context.Context, orgID uint64, id string, occ []model.DayOccupancy, amount float64) error {
	occJSON, err := occupancyJSON(occ)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE payments SET daily_occupancy=?, amount=? WHERE id=? AND organization_id=? AND billing_locked=0",
		occJSON, amount, id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		p, getErr := r.GetByID(ctx, orgID, id)
		if getErr != nil {
			return getErr
		}
		if p.BillingLocked {
			return ErrConflict
		}
	}
	return nil
}

// UpdateOccupancyOnly stores new occupancy data without touching the
// amount, used when the payment is billing locked and only the roster
// is being corrected.
func (r *PaymentRepo) UpdateOccupancyOnly(ctx context.Context, orgID uint64, id string, occ []model.DayOccupancy) error {
	occJSON, err := occupancyJSON(occ)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE payments SET daily_occupancy=? WHERE id=? AND organization_id=?",
		occJSON, id, orgID)
	return err
}

// SetStatus updates only the status column.
func (r *PaymentRepo) SetStatus(ctx context.Context, orgID uint64, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=? AND organization_id=?",
		status, id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// RecordPaid updates the paid amount and status.
func (r *PaymentRepo) RecordPaid(ctx context.Context, orgID uint64, id string, amountPaid float64, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE payments SET amount_paid=?, status=? WHERE id=? AND organization_id=?",
		amountPaid, status, id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// SetBillingLock toggles the billing lock. Locking freezes amount and
// manual_adjustment at their current values.
func (r *PaymentRepo) SetBillingLock(ctx context.Context, orgID uint64, id string, locked bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE payments SET billing_locked=? WHERE id=? AND organization_id=?",
		locked, id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// SetManualAdjustment updates the adjustment column. The amount is
// left alone; it holds the computed charge and the two are summed on
// read.
func (r *PaymentRepo) SetManualAdjustment(ctx context.Context, orgID uint64, id string, adjustment float64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE payments SET manual_adjustment=? WHERE id=? AND organization_id=?",
		adjustment, id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
			return getErr
		}
	}
	return nil
}
