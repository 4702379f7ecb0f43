package model

import "time"

// Snapshot sources.  Automatic snapshots are subject to retention
// cleanup; manual snapshots are permanent until explicitly deleted.
const (
	SnapshotAuto   = "auto"
	SnapshotManual = "manual"
)

// Snapshot frequencies accepted in organization settings.
const (
	SnapshotOff      = "off"
	SnapshotDaily    = "daily"
	SnapshotWeekly   = "weekly"
	SnapshotBiweekly = "biweekly"
	SnapshotMonthly  = "monthly"
)

// SnapshotMeta describes one immutable season export stored in the
// blob store.  The exported document itself lives at FilePath; this
// row only records where it is and how it was produced.
//
// Fields:
//  ID             – UUID identifier.
//  OrganizationID – owning organization.
//  BackupType     – label of the export (e.g. "stay_history_2025").
//  FilePath       – blob-store path of the JSON document.
//  FileSize       – size of the stored document in bytes.
//  Source         – auto or manual.
//  SeasonYear     – season the snapshot covers.
//  CreatedBy      – user who requested a manual snapshot (0 for auto).
//  CreatedAt      – creation timestamp.
type SnapshotMeta struct {
	ID             string    // snapshots.id
	OrganizationID uint64    // snapshots.organization_id
	BackupType     string    // snapshots.backup_type
	FilePath       string    // snapshots.file_path
	FileSize       int64     // snapshots.file_size
	Source         string    // snapshots.source
	SeasonYear     int       // snapshots.season_year
	CreatedBy      uint64    // snapshots.created_by
	CreatedAt      time.Time // snapshots.created_at
}
