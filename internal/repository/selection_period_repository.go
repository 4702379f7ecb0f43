package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// SelectionPeriodRepo manages the rotation calendar: the ordered
// selection windows each family group gets for a rotation year, and
// the extension records created when a window is lengthened.
type SelectionPeriodRepo struct {
	db *sql.DB
}

// NewSelectionPeriodRepo returns a new SelectionPeriodRepo bound to the given database.
func NewSelectionPeriodRepo(db *sql.DB) *SelectionPeriodRepo { return &SelectionPeriodRepo{db: db} }

const periodCols = "id, organization_id, rotation_year, family_group, position, start_date, end_date"

func scanPeriod(row interface{ Scan(...any) error }) (model.SelectionPeriod, error) {
	var p model.SelectionPeriod
	err := row.Scan(&p.ID, &p.OrganizationID, &p.RotationYear, &p.FamilyGroup,
		&p.Position, &p.StartDate, &p.EndDate)
	return p, err
}

// Create inserts a selection period. A duplicate position within the
// rotation year returns ErrConflict.
func (r *SelectionPeriodRepo) Create(ctx context.Context, p *model.SelectionPeriod) error {
	const q = `INSERT INTO selection_periods (organization_id, rotation_year, family_group, position, start_date, end_date)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.OrganizationID, p.RotationYear, p.FamilyGroup, p.Position,
		p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByYear returns the rotation year's periods ordered by position.
func (r *SelectionPeriodRepo) ListByYear(ctx context.Context, orgID uint64, year int) ([]model.SelectionPeriod, error) {
	const q = "SELECT " + periodCols + " FROM selection_periods WHERE organization_id = ? AND rotation_year = ? ORDER BY position"
	rows, err := r.db.QueryContext(ctx, q, orgID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SelectionPeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByYearTx is ListByYear within a transaction, locking the rows
// for update so a concurrent extension cannot interleave.
func (r *SelectionPeriodRepo) ListByYearTx(ctx context.Context, tx *sql.Tx, orgID uint64, year int) ([]model.SelectionPeriod, error) {
	const q = "SELECT " + periodCols + " FROM selection_periods WHERE organization_id = ? AND rotation_year = ? ORDER BY position FOR UPDATE"
	rows, err := tx.QueryContext(ctx, q, orgID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SelectionPeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateDatesTx rewrites one period's window within a transaction.
func (r *SelectionPeriodRepo) UpdateDatesTx(ctx context.Context, tx *sql.Tx, p model.SelectionPeriod) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE selection_periods SET start_date=?, end_date=? WHERE id=? AND organization_id=?",
		p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"), p.ID, p.OrganizationID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		var exists int
		if scanErr := tx.QueryRowContext(ctx,
			"SELECT 1 FROM selection_periods WHERE id=? AND organization_id=?",
			p.ID, p.OrganizationID).Scan(&exists); errors.Is(scanErr, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

// CreateExtensionTx records an extension within a transaction.
func (r *SelectionPeriodRepo) CreateExtensionTx(ctx context.Context, tx *sql.Tx, e *model.SelectionPeriodExtension) error {
	const q = `INSERT INTO selection_period_extensions (organization_id, rotation_year, family_group, original_end_date, extended_until, reason)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		e.OrganizationID, e.RotationYear, e.FamilyGroup,
		e.OriginalEndDate.Format("2006-01-02"), e.ExtendedUntil.Format("2006-01-02"), e.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListExtensions returns the extension history for a rotation year.
func (r *SelectionPeriodRepo) ListExtensions(ctx context.Context, orgID uint64, year int) ([]model.SelectionPeriodExtension, error) {
	const q = `SELECT id, organization_id, rotation_year, family_group, original_end_date, extended_until, reason, created_at
	           FROM selection_period_extensions WHERE organization_id = ? AND rotation_year = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, orgID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SelectionPeriodExtension, 0)
	for rows.Next() {
		var e model.SelectionPeriodExtension
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.RotationYear, &e.FamilyGroup,
			&e.OriginalEndDate, &e.ExtendedUntil, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// BeginTx exposes a transaction for handlers that orchestrate the
// extension cascade across multiple period updates.
func (r *SelectionPeriodRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
