package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cabinbuddy/cabin-buddy/internal/model"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	"github.com/cabinbuddy/cabin-buddy/internal/season"
	"github.com/cabinbuddy/cabin-buddy/internal/storage"
)

// Service creates, lists, restores and sweeps season snapshots.
type Service struct {
	Orgs         *repository.OrganizationRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Splits       *repository.PaymentSplitRepo
	Snapshots    *repository.SnapshotRepo
	Restorer     *repository.RestoreRepo
	Store        storage.BlobStore
}

// Create captures the organization's season into a document, uploads
// it and records its metadata. createdBy is zero for automatic runs.
func (s *Service) Create(ctx context.Context, orgID uint64, year int, source string, createdBy uint64) (model.SnapshotMeta, error) {
	org, err := s.Orgs.GetByID(ctx, orgID)
	if err != nil {
		return model.SnapshotMeta{}, err
	}
	settings, err := s.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return model.SnapshotMeta{}, err
	}
	cfg, err := season.ResolveConfig(settings, year)
	if err != nil {
		// Billing settings do not affect what gets captured.
		slog.Warn("snapshot: season config fallback", "org_id", orgID, "error", err)
	}

	reservations, err := s.Reservations.ListBySeason(ctx, orgID, cfg.Start, cfg.End)
	if err != nil {
		return model.SnapshotMeta{}, err
	}
	payments, err := s.Payments.ListByOrg(ctx, orgID)
	if err != nil {
		return model.SnapshotMeta{}, err
	}
	splits, err := s.Splits.ListByOrg(ctx, orgID)
	if err != nil {
		return model.SnapshotMeta{}, err
	}
	payments, splits = FilterSeason(reservations, payments, splits)

	now := time.Now().UTC()
	doc := BuildDocument(org, year, source, createdBy, now, reservations, payments, splits)
	data, err := doc.Encode()
	if err != nil {
		return model.SnapshotMeta{}, err
	}

	meta := model.SnapshotMeta{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		BackupType:     "season",
		FileSize:       int64(len(data)),
		Source:         source,
		SeasonYear:     year,
		CreatedBy:      createdBy,
	}
	meta.FilePath = ObjectPath(orgID, year, meta.ID)

	if err := s.Store.Upload(ctx, meta.FilePath, data); err != nil {
		return model.SnapshotMeta{}, fmt.Errorf("upload snapshot: %w", err)
	}
	if err := s.Snapshots.Create(ctx, &meta); err != nil {
		// Best effort cleanup of the orphaned blob.
		if delErr := s.Store.Delete(ctx, meta.FilePath); delErr != nil {
			slog.Warn("snapshot: orphaned blob after failed insert", "path", meta.FilePath, "error", delErr)
		}
		return model.SnapshotMeta{}, err
	}
	return meta, nil
}

// Preview downloads a snapshot and returns its metadata and summary
// without touching live data. Handlers expose this as the first phase
// of the two-step restore.
func (s *Service) Preview(ctx context.Context, orgID uint64, snapshotID string) (Document, error) {
	meta, err := s.Snapshots.GetByID(ctx, orgID, snapshotID)
	if err != nil {
		return Document{}, err
	}
	data, err := s.Store.Download(ctx, meta.FilePath)
	if err != nil {
		return Document{}, err
	}
	doc, err := Decode(data)
	if err != nil {
		return Document{}, err
	}
	if doc.Metadata.OrganizationID != orgID {
		return Document{}, repository.ErrForbidden
	}
	return doc, nil
}

// Restore replaces the season's live records with the snapshot's
// contents. A pre-restore snapshot is taken first so the operation
// itself can be undone. scope is one of the repository.Scope values.
func (s *Service) Restore(ctx context.Context, orgID uint64, snapshotID, scope string, requestedBy uint64) (model.SnapshotMeta, error) {
	doc, err := s.Preview(ctx, orgID, snapshotID)
	if err != nil {
		return model.SnapshotMeta{}, err
	}

	preRestore, err := s.Create(ctx, orgID, doc.Metadata.SeasonYear, model.SnapshotManual, requestedBy)
	if err != nil {
		return model.SnapshotMeta{}, fmt.Errorf("pre-restore snapshot: %w", err)
	}

	settings, err := s.Orgs.GetSettings(ctx, orgID)
	if err != nil {
		return model.SnapshotMeta{}, err
	}
	cfg, _ := season.ResolveConfig(settings, doc.Metadata.SeasonYear)

	if err := s.Restorer.ReplaceSeason(ctx, orgID, cfg.Start, cfg.End, scope,
		doc.Data.Reservations, doc.Data.Payments, doc.Data.PaymentSplits); err != nil {
		return model.SnapshotMeta{}, fmt.Errorf("restore season: %w", err)
	}

	slog.Info("season restored from snapshot",
		"org_id", orgID, "snapshot_id", snapshotID, "scope", scope,
		"season_year", doc.Metadata.SeasonYear, "pre_restore_id", preRestore.ID)
	return preRestore, nil
}

// Delete removes a snapshot's blob and metadata.
func (s *Service) Delete(ctx context.Context, orgID uint64, snapshotID string) error {
	meta, err := s.Snapshots.GetByID(ctx, orgID, snapshotID)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, meta.FilePath); err != nil {
		return err
	}
	return s.Snapshots.Delete(ctx, orgID, snapshotID)
}

// Sweep runs one pass of the automatic snapshot schedule: it creates
// due snapshots for every organization that has them enabled and
// prunes automatic snapshots beyond the retention count.
func (s *Service) Sweep(ctx context.Context, now time.Time) {
	all, err := s.Orgs.ListOrgsWithSnapshots(ctx)
	if err != nil {
		slog.Error("snapshot sweep: list organizations", "error", err)
		return
	}
	for _, settings := range all {
		for _, year := range SweepYears(now) {
			s.sweepOrgYear(ctx, settings, year, now)
		}
	}
}

func (s *Service) sweepOrgYear(ctx context.Context, settings model.OrganizationSettings, year int, now time.Time) {
	orgID := settings.OrganizationID
	lastAuto, err := s.Snapshots.LatestAutoAt(ctx, orgID, year)
	if err != nil {
		slog.Error("snapshot sweep: latest auto", "org_id", orgID, "year", year, "error", err)
		return
	}
	if Due(settings.SnapshotFrequency, lastAuto, now) {
		meta, err := s.Create(ctx, orgID, year, model.SnapshotAuto, 0)
		if err != nil {
			slog.Error("snapshot sweep: create", "org_id", orgID, "year", year, "error", err)
		} else {
			slog.Info("automatic snapshot created", "org_id", orgID, "year", year, "snapshot_id", meta.ID)
		}
	}

	snaps, err := s.Snapshots.ListByOrg(ctx, orgID, year)
	if err != nil {
		slog.Error("snapshot sweep: list", "org_id", orgID, "year", year, "error", err)
		return
	}
	for _, victim := range RetentionVictims(snaps, settings.SnapshotRetention) {
		if err := s.Store.Delete(ctx, victim.FilePath); err != nil {
			slog.Error("snapshot sweep: delete blob", "snapshot_id", victim.ID, "error", err)
			continue
		}
		if err := s.Snapshots.Delete(ctx, orgID, victim.ID); err != nil {
			slog.Error("snapshot sweep: delete meta", "snapshot_id", victim.ID, "error", err)
			continue
		}
		slog.Info("automatic snapshot pruned", "org_id", orgID, "snapshot_id", victim.ID)
	}
}

// Run executes Sweep on a fixed interval until the context ends.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Sweep(ctx, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now().UTC())
		}
	}
}
