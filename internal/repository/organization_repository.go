package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// OrganizationRepo provides access to organizations, their members,
// per-organization settings and family groups. Every read that serves
// a request is scoped by organization id so one organization can
// never observe another's rows.
type OrganizationRepo struct {
	db *sql.DB
}

// NewOrganizationRepo returns a new OrganizationRepo bound to the given database.
func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{db: db} }

// Create inserts an organization with default settings and registers the
// creating user as its admin. All three inserts share one transaction.
func (r *OrganizationRepo) Create(ctx context.Context, name string, creatorID uint64, familyGroup string) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "INSERT INTO organizations (name) VALUES (?)", strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	orgID := uint64(id)

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO organization_settings (organization_id) VALUES (?)", orgID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO organization_members (organization_id, user_id, family_group, role) VALUES (?,?,?,'ADMIN')",
		orgID, creatorID, familyGroup); err != nil {
		return 0, err
	}
	if familyGroup != "" {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_groups (organization_id, name) VALUES (?,?)",
			orgID, familyGroup); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return orgID, nil
}

// GetByID fetches an organization by id.
func (r *OrganizationRepo) GetByID(ctx context.Context, orgID uint64) (model.Organization, error) {
	var o model.Organization
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM organizations WHERE id=? LIMIT 1",
		orgID).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, err
}

// GetMember returns the membership row for a user in an organization.
// ErrForbidden is returned when the user is not a member, so handlers
// can use this directly as the tenancy gate.
func (r *OrganizationRepo) GetMember(ctx context.Context, orgID, userID uint64) (model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := r.db.QueryRowContext(ctx,
		"SELECT organization_id, user_id, family_group, role, created_at FROM organization_members WHERE organization_id=? AND user_id=? LIMIT 1",
		orgID, userID).Scan(&m.OrganizationID, &m.UserID, &m.FamilyGroup, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrForbidden
	}
	return m, err
}

// AddMember registers a user in an organization under a family group.
func (r *OrganizationRepo) AddMember(ctx context.Context, orgID, userID uint64, familyGroup, role string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organization_members (organization_id, user_id, family_group, role) VALUES (?,?,?,?)",
		orgID, userID, familyGroup, role)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrConflict
	}
	return err
}

// ListForUser returns every organization the user belongs to.
func (r *OrganizationRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Organization, error) {
	const q = `SELECT o.id, o.name, o.created_at, o.updated_at
	           FROM organizations o
	           JOIN organization_members m ON m.organization_id = o.id
	           WHERE m.user_id = ?
	           ORDER BY o.name`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orgs := make([]model.Organization, 0)
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// GetSettings fetches the organization's billing and snapshot settings.
func (r *OrganizationRepo) GetSettings(ctx context.Context, orgID uint64) (model.OrganizationSettings, error) {
	var s model.OrganizationSettings
	const q = `SELECT organization_id, season_start_month, season_start_day, season_end_month, season_end_day,
	                  payment_deadline_days, billing_method, billing_amount, tax_rate, cleaning_fee, pet_fee,
	                  damage_deposit, snapshot_frequency, snapshot_retention
	           FROM organization_settings WHERE organization_id=? LIMIT 1`
	err := r.db.QueryRowContext(ctx, q, orgID).Scan(
		&s.OrganizationID, &s.SeasonStartMonth, &s.SeasonStartDay, &s.SeasonEndMonth, &s.SeasonEndDay,
		&s.PaymentDeadlineDays, &s.BillingMethod, &s.BillingAmount, &s.TaxRate, &s.CleaningFee, &s.PetFee,
		&s.DamageDeposit, &s.SnapshotFrequency, &s.SnapshotRetention)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// UpdateSettings overwrites the organization's settings row.
func (r *OrganizationRepo) UpdateSettings(ctx context.Context, s model.OrganizationSettings) error {
	const q = `UPDATE organization_settings SET
	             season_start_month=?, season_start_day=?, season_end_month=?, season_end_day=?,
	             payment_deadline_days=?, billing_method=?, billing_amount=?, tax_rate=?, cleaning_fee=?,
	             pet_fee=?, damage_deposit=?, snapshot_frequency=?, snapshot_retention=?
	           WHERE organization_id=?`
	res, err := r.db.ExecContext(ctx, q,
		s.SeasonStartMonth, s.SeasonStartDay, s.SeasonEndMonth, s.SeasonEndDay,
		s.PaymentDeadlineDays, s.BillingMethod, s.BillingAmount, s.TaxRate, s.CleaningFee,
		s.PetFee, s.DamageDeposit, s.SnapshotFrequency, s.SnapshotRetention,
		s.OrganizationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// Row may exist with identical values; verify presence.
		var exists int
		if scanErr := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM organization_settings WHERE organization_id=?",
			s.OrganizationID).Scan(&exists); errors.Is(scanErr, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return err
}

// ListOrgsWithSnapshots returns every organization whose snapshot
// frequency is not 'off', with its settings, for the auto sweep.
func (r *OrganizationRepo) ListOrgsWithSnapshots(ctx context.Context) ([]model.OrganizationSettings, error) {
	const q = `SELECT organization_id, season_start_month, season_start_day, season_end_month, season_end_day,
	                  payment_deadline_days, billing_method, billing_amount, tax_rate, cleaning_fee, pet_fee,
	                  damage_deposit, snapshot_frequency, snapshot_retention
	           FROM organization_settings WHERE snapshot_frequency <> 'off'`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OrganizationSettings, 0)
	for rows.Next() {
		var s model.OrganizationSettings
		if err := rows.Scan(
			&s.OrganizationID, &s.SeasonStartMonth, &s.SeasonStartDay, &s.SeasonEndMonth, &s.SeasonEndDay,
			&s.PaymentDeadlineDays, &s.BillingMethod, &s.BillingAmount, &s.TaxRate, &s.CleaningFee, &s.PetFee,
			&s.DamageDeposit, &s.SnapshotFrequency, &s.SnapshotRetention); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListFamilyGroups returns the organization's family groups ordered by
// rotation position, then name.
func (r *OrganizationRepo) ListFamilyGroups(ctx context.Context, orgID uint64) ([]model.FamilyGroup, error) {
	const q = `SELECT id, organization_id, name, rotation_order, created_at
	           FROM family_groups WHERE organization_id=? ORDER BY rotation_order, name`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]model.FamilyGroup, 0)
	for rows.Next() {
		var g model.FamilyGroup
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.Name, &g.RotationOrder, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateFamilyGroup adds a family group. Duplicate names within an
// organization return ErrConflict.
func (r *OrganizationRepo) CreateFamilyGroup(ctx context.Context, orgID uint64, name string, rotationOrder int) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO family_groups (organization_id, name, rotation_order) VALUES (?,?,?)",
		orgID, strings.TrimSpace(name), rotationOrder)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// MemberEmailsByFamilyGroup returns the email addresses of members in
// one family group, used for split notifications.
func (r *OrganizationRepo) MemberEmailsByFamilyGroup(ctx context.Context, orgID uint64, familyGroup string) ([]string, error) {
	const q = `SELECT u.email
	           FROM organization_members m
	           JOIN users u ON u.id = m.user_id
	           WHERE m.organization_id = ? AND m.family_group = ? AND u.is_active = 1`
	rows, err := r.db.QueryContext(ctx, q, orgID, familyGroup)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	emails := make([]string, 0)
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
