package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// PaymentSplitRepo persists the audit rows created when a stay's cost
// is split between family groups. Split rows are immutable except for
// their notification status; the unique (operation_id, split_payment_id)
// key makes replayed split requests detectable.
type PaymentSplitRepo struct {
	db *sql.DB
}

// NewPaymentSplitRepo returns a new PaymentSplitRepo bound to the given database.
func NewPaymentSplitRepo(db *sql.DB) *PaymentSplitRepo { return &PaymentSplitRepo{db: db} }

const splitCols = `id, organization_id, operation_id, source_payment_id, split_payment_id,
	source_family_group, source_user_id, split_to_family_group, split_to_user_id,
	daily_occupancy, notification_status, created_at`

func scanSplit(row interface{ Scan(...any) error }) (model.PaymentSplit, error) {
	var (
		s   model.PaymentSplit
		occ sql.NullString
	)
	err := row.Scan(&s.ID, &s.OrganizationID, &s.OperationID, &s.SourcePaymentID, &s.SplitPaymentID,
		&s.SourceFamilyGroup, &s.SourceUserID, &s.SplitToFamilyGroup, &s.SplitToUserID,
		&occ, &s.NotificationStatus, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	if occ.Valid && occ.String != "" {
		if err := json.Unmarshal([]byte(occ.String), &s.DailyOccupancy); err != nil {
			return s, err
		}
	}
	return s, nil
}

// CreateTx inserts an audit row within the caller's transaction. A
// replayed operation id for the same target hits the unique key and
// returns ErrConflict.
func (r *PaymentSplitRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.PaymentSplit) error {
	occ, err := occupancyJSON(s.DailyOccupancy)
	if err != nil {
		return err
	}
	const q = `INSERT INTO payment_splits (id, organization_id, operation_id, source_payment_id, split_payment_id,
	             source_family_group, source_user_id, split_to_family_group, split_to_user_id,
	             daily_occupancy, notification_status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		s.ID, s.OrganizationID, s.OperationID, s.SourcePaymentID, s.SplitPaymentID,
		s.SourceFamilyGroup, s.SourceUserID, s.SplitToFamilyGroup, s.SplitToUserID,
		occ, s.NotificationStatus); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// ListByOperation returns the audit rows recorded under an operation
// id, used to answer replayed split requests idempotently.
func (r *PaymentSplitRepo) ListByOperation(ctx context.Context, orgID uint64, operationID string) ([]model.PaymentSplit, error) {
	const q = "SELECT " + splitCols + " FROM payment_splits WHERE organization_id = ? AND operation_id = ? ORDER BY created_at, id"
	return r.list(ctx, q, orgID, operationID)
}

// ListByOrg returns every split in the organization, newest first.
func (r *PaymentSplitRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.PaymentSplit, error) {
	const q = "SELECT " + splitCols + " FROM payment_splits WHERE organization_id = ? ORDER BY created_at DESC, id"
	return r.list(ctx, q, orgID)
}

func (r *PaymentSplitRepo) list(ctx context.Context, q string, args ...any) ([]model.PaymentSplit, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.PaymentSplit, 0)
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns one split row within the organization.
func (r *PaymentSplitRepo) GetByID(ctx context.Context, orgID uint64, id string) (model.PaymentSplit, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+splitCols+" FROM payment_splits WHERE id = ? AND organization_id = ?", id, orgID)
	s, err := scanSplit(row)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// UpdateNotificationStatus records the outcome of the notification
// attempt for one split row.
func (r *PaymentSplitRepo) UpdateNotificationStatus(ctx context.Context, orgID uint64, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE payment_splits SET notification_status=? WHERE id=? AND organization_id=?",
		status, id, orgID)
	return err
}
