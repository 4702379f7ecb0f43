package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
)

// SnapshotRepo persists snapshot metadata. The JSON documents
// themselves live in the blob store; rows here only describe them.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo returns a new SnapshotRepo bound to the given database.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

const snapshotCols = "id, organization_id, backup_type, file_path, file_size, source, season_year, created_by, created_at"

func scanSnapshot(row interface{ Scan(...any) error }) (model.SnapshotMeta, error) {
	var s model.SnapshotMeta
	err := row.Scan(&s.ID, &s.OrganizationID, &s.BackupType, &s.FilePath, &s.FileSize,
		&s.Source, &s.SeasonYear, &s.CreatedBy, &s.CreatedAt)
	return s, err
}

// Create inserts a metadata row for an uploaded snapshot.
func (r *SnapshotRepo) Create(ctx context.Context, s *model.SnapshotMeta) error {
	const q = `INSERT INTO snapshots (id, organization_id, backup_type, file_path, file_size, source, season_year, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		s.ID, s.OrganizationID, s.BackupType, s.FilePath, s.FileSize, s.Source, s.SeasonYear, s.CreatedBy); err != nil {
		return err
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+snapshotCols+" FROM snapshots WHERE id = ?", s.ID)
	got, err := scanSnapshot(row)
	if err != nil {
		return err
	}
	*s = got
	return nil
}

// GetByID returns one snapshot's metadata within the organization.
func (r *SnapshotRepo) GetByID(ctx context.Context, orgID uint64, id string) (model.SnapshotMeta, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+snapshotCols+" FROM snapshots WHERE id = ? AND organization_id = ?", id, orgID)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// ListByOrg returns the organization's snapshots, newest first. A
// non-zero year restricts the listing to that season.
func (r *SnapshotRepo) ListByOrg(ctx context.Context, orgID uint64, year int) ([]model.SnapshotMeta, error) {
	q := "SELECT " + snapshotCols + " FROM snapshots WHERE organization_id = ?"
	args := []any{orgID}
	if year != 0 {
		q += " AND season_year = ?"
		args = append(args, year)
	}
	q += " ORDER BY created_at DESC, id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SnapshotMeta, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestAutoAt returns the creation time of the most recent automatic
// snapshot for the season, or nil when none exists.
func (r *SnapshotRepo) LatestAutoAt(ctx context.Context, orgID uint64, year int) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx,
		"SELECT created_at FROM snapshots WHERE organization_id=? AND season_year=? AND source=? ORDER BY created_at DESC LIMIT 1",
		orgID, year, model.SnapshotAuto).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

// Delete removes a metadata row. Blob deletion is the caller's job.
func (r *SnapshotRepo) Delete(ctx context.Context, orgID uint64, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM snapshots WHERE id=? AND organization_id=?", id, orgID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
