package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// ReservationRepo provides CRUD operations for cabin reservations.
// A reservation represents one family group's stay; dates are stored
// as DATE columns and the end date is the checkout day (exclusive).
// All queries are scoped by organization id.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = "id, organization_id, family_group, start_date, end_date, status, guest_count, created_at, updated_at"

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.OrganizationID, &res.FamilyGroup,
		&res.StartDate, &res.EndDate, &res.Status, &res.GuestCount,
		&res.CreatedAt, &res.UpdatedAt)
	return res, err
}

// Create inserts a reservation. The caller supplies the UUID id.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (id, organization_id, family_group, start_date, end_date, status, guest_count)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		res.ID, res.OrganizationID, res.FamilyGroup,
		res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"),
		res.Status, res.GuestCount); err != nil {
		return err
	}
	// Query back to populate timestamps and defaults.
	row := r.db.QueryRowContext(ctx, "SELECT "+reservationCols+" FROM reservations WHERE id = ?", res.ID)
	got, err := scanReservation(row)
	if err != nil {
		return err
	}
	*res = got
	return nil
}

// GetByID returns a reservation within the organization.
func (r *ReservationRepo) GetByID(ctx context.Context, orgID uint64, id string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id = ? AND organization_id = ?", id, orgID)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}
	return res, err
}

// ListByOrg returns the organization's reservations ordered by start
// date. When from/to are non-zero they bound the stay window: a
// reservation is included when it overlaps [from, to).
func (r *ReservationRepo) ListByOrg(ctx context.Context, orgID uint64, from, to time.Time) ([]model.Reservation, error) {
	q := "SELECT " + reservationCols + " FROM reservations WHERE organization_id = ?"
	args := []any{orgID}
	if !from.IsZero() && !to.IsZero() {
		q += " AND start_date < ? AND end_date > ?"
		args = append(args, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	q += " ORDER BY start_date, id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListBySeason returns the reservations belonging to a season,
// ordered by start date. Membership goes by check-in: a stay belongs
// to the season whose [from, to] range contains its start date, even
// when it runs past the season end.
func (r *ReservationRepo) ListBySeason(ctx context.Context, orgID uint64, from, to time.Time) ([]model.Reservation, error) {
	const q = "SELECT " + reservationCols + ` FROM reservations
	           WHERE organization_id = ? AND start_date BETWEEN ? AND ?
	           ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q, orgID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a reservation.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations SET family_group=?, start_date=?, end_date=?, status=?, guest_count=?
	           WHERE id=? AND organization_id=?`
	result, err := r.db.ExecContext(ctx, q,
		res.FamilyGroup, res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"),
		res.Status, res.GuestCount, res.ID, res.OrganizationID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.GetByID(ctx, res.OrganizationID, res.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}


// Delete removes a reservation. Reservations with a payment cannot be
// deleted; cancel them instead so the billing trail survives.
func (r *ReservationRepo) Delete(ctx context.Context, orgID uint64, id string) error {
	var paymentCount int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE reservation_id=? AND organization_id=?",
		id, orgID).Scan(&paymentCount); err != nil {
		return err
	}
	if paymentCount > 0 {
		return ErrConflict
	}
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM reservations WHERE id=? AND organization_id=?", id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
