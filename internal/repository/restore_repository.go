package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// RestoreRepo replaces a season's records with the contents of a
// snapshot document. The whole swap runs in one transaction so a
// failed restore leaves the season untouched.
type RestoreRepo struct {
	db       *sql.DB
	payments *PaymentRepo
	splits   *PaymentSplitRepo
}

// NewRestoreRepo returns a new RestoreRepo bound to the given database.
func NewRestoreRepo(db *sql.DB) *RestoreRepo {
	return &RestoreRepo{db: db, payments: NewPaymentRepo(db), splits: NewPaymentSplitRepo(db)}
}

// Restore scopes: everything, only billing rows, only stay rows.
const (
	ScopeFull             = "full"
	ScopePaymentsOnly     = "payments_only"
	ScopeReservationsOnly = "reservations_only"
)

// ReplaceSeason deletes the organization's reservations checking in
// within [from, to], their payments, the document's payments by id,
// any orphaned split rows, and then inserts the document's records.
// Membership goes by check-in date, matching what snapshots capture.
// Scope narrows the swap to payments or reservations alone.
func (r *RestoreRepo) ReplaceSeason(ctx context.Context, orgID uint64, from, to time.Time, scope string,
	reservations []model.Reservation, payments []model.Payment, splits []model.PaymentSplit) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	fromStr := from.Format("2006-01-02")
	toStr := to.Format("2006-01-02")

	if scope != ScopeReservationsOnly {
		// Payments for reservations in the window.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM payments WHERE organization_id = ? AND reservation_id IN
			   (SELECT id FROM reservations WHERE organization_id = ? AND start_date BETWEEN ? AND ?)`,
			orgID, orgID, fromStr, toStr); err != nil {
			return err
		}

		// Payments the document is about to reinsert, including split
		// payments that carry no reservation.
		if ids := paymentIDs(payments); len(ids) > 0 {
			q, args := inClause("DELETE FROM payments WHERE organization_id = ? AND id IN ", orgID, ids)
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}

		// Split rows whose source payment no longer exists are orphans
		// of the deletes above.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM payment_splits WHERE organization_id = ? AND source_payment_id NOT IN
			   (SELECT id FROM payments WHERE organization_id = ?)`,
			orgID, orgID); err != nil {
			return err
		}
		if ids := splitIDs(splits); len(ids) > 0 {
			q, args := inClause("DELETE FROM payment_splits WHERE organization_id = ? AND id IN ", orgID, ids)
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}
	}

	if scope != ScopePaymentsOnly {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM reservations WHERE organization_id = ? AND start_date BETWEEN ? AND ?",
			orgID, fromStr, toStr); err != nil {
			return err
		}

		for i := range reservations {
			res := reservations[i]
			const q = `INSERT INTO reservations (id, organization_id, family_group, start_date, end_date, status, guest_count, created_at)
			           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
			if _, err := tx.ExecContext(ctx, q,
				res.ID, orgID, res.FamilyGroup,
				res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"),
				res.Status, res.GuestCount, res.CreatedAt); err != nil {
				return err
			}
		}
	}

	if scope != ScopeReservationsOnly {
		for i := range payments {
			p := payments[i]
			p.OrganizationID = orgID
			if err := r.payments.CreateTx(ctx, tx, &p); err != nil {
				return err
			}
		}
		for i := range splits {
			s := splits[i]
			s.OrganizationID = orgID
			if err := r.splits.CreateTx(ctx, tx, &s); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func paymentIDs(payments []model.Payment) []string {
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
	}
	return ids
}

func splitIDs(splits []model.PaymentSplit) []string {
	ids := make([]string, 0, len(splits))
	for _, s := range splits {
		ids = append(ids, s.ID)
	}
	return ids
}

func inClause(prefix string, orgID uint64, ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, orgID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	return prefix + "(" + strings.Join(placeholders, ",") + ")", args
}
