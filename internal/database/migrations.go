package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations run in order on startup.  Each statement is idempotent
// so repeated boots against the same database are safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		display_name VARCHAR(120) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(160) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS organization_members (
		organization_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		family_group VARCHAR(120) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL DEFAULT 'MEMBER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (organization_id, user_id),
		KEY idx_org_members_user (user_id),
		CONSTRAINT fk_org_members_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE,
		CONSTRAINT fk_org_members_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS organization_settings (
		organization_id BIGINT UNSIGNED NOT NULL,
		season_start_month INT NOT NULL DEFAULT 10,
		season_start_day INT NOT NULL DEFAULT 1,
		season_end_month INT NOT NULL DEFAULT 10,
		season_end_day INT NOT NULL DEFAULT 31,
		payment_deadline_days INT NOT NULL DEFAULT 30,
		billing_method VARCHAR(40) NOT NULL DEFAULT 'per-person-per-day',
		billing_amount DOUBLE NOT NULL DEFAULT 0,
		tax_rate DOUBLE NOT NULL DEFAULT 0,
		cleaning_fee DOUBLE NOT NULL DEFAULT 0,
		pet_fee DOUBLE NOT NULL DEFAULT 0,
		damage_deposit DOUBLE NOT NULL DEFAULT 0,
		snapshot_frequency VARCHAR(16) NOT NULL DEFAULT 'off',
		snapshot_retention INT NOT NULL DEFAULT 10,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (organization_id),
		CONSTRAINT fk_org_settings_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS family_groups (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		organization_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(120) NOT NULL,
		rotation_order INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_family_groups_org_name (organization_id, name),
		CONSTRAINT fk_family_groups_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id CHAR(36) NOT NULL,
		organization_id BIGINT UNSIGNED NOT NULL,
		family_group VARCHAR(120) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		guest_count INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_reservations_org_dates (organization_id, start_date, end_date),
		CONSTRAINT fk_reservations_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// A reservation carries at most one billing payment.  The unique
	// key enforces that at write time; split-generated payments have a
	// NULL reservation_id and are exempt.
	`CREATE TABLE IF NOT EXISTS payments (
		id CHAR(36) NOT NULL,
		organization_id BIGINT UNSIGNED NOT NULL,
		reservation_id CHAR(36) NULL,
		family_group VARCHAR(120) NOT NULL,
		amount DOUBLE NOT NULL DEFAULT 0,
		amount_paid DOUBLE NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		daily_occupancy JSON NULL,
		billing_locked TINYINT(1) NOT NULL DEFAULT 0,
		manual_adjustment DOUBLE NOT NULL DEFAULT 0,
		description VARCHAR(255) NOT NULL DEFAULT '',
		notes TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_payments_reservation (reservation_id),
		KEY idx_payments_org_group (organization_id, family_group),
		CONSTRAINT fk_payments_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// operation_id is client generated; the unique key makes split
	// creation idempotent across retries.
	`CREATE TABLE IF NOT EXISTS payment_splits (
		id CHAR(36) NOT NULL,
		organization_id BIGINT UNSIGNED NOT NULL,
		operation_id CHAR(36) NOT NULL,
		source_payment_id CHAR(36) NOT NULL,
		split_payment_id CHAR(36) NOT NULL,
		source_family_group VARCHAR(120) NOT NULL,
		source_user_id BIGINT UNSIGNED NOT NULL,
		split_to_family_group VARCHAR(120) NOT NULL,
		split_to_user_id BIGINT UNSIGNED NOT NULL,
		daily_occupancy JSON NULL,
		notification_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_payment_splits_op_target (operation_id, split_payment_id),
		KEY idx_payment_splits_operation (operation_id),
		KEY idx_payment_splits_org (organization_id),
		CONSTRAINT fk_payment_splits_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS snapshots (
		id CHAR(36) NOT NULL,
		organization_id BIGINT UNSIGNED NOT NULL,
		backup_type VARCHAR(16) NOT NULL DEFAULT 'season',
		file_path VARCHAR(512) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		source VARCHAR(16) NOT NULL,
		season_year INT NOT NULL,
		created_by BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_snapshots_org_year (organization_id, season_year, created_at),
		CONSTRAINT fk_snapshots_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS selection_periods (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		organization_id BIGINT UNSIGNED NOT NULL,
		rotation_year INT NOT NULL,
		family_group VARCHAR(120) NOT NULL,
		position INT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_selection_periods_slot (organization_id, rotation_year, position),
		CONSTRAINT fk_selection_periods_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS selection_period_extensions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		organization_id BIGINT UNSIGNED NOT NULL,
		rotation_year INT NOT NULL,
		family_group VARCHAR(120) NOT NULL,
		original_end_date DATE NOT NULL,
		extended_until DATE NOT NULL,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_extensions_org_year (organization_id, rotation_year),
		CONSTRAINT fk_extensions_org FOREIGN KEY (organization_id) REFERENCES organizations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  It is called once at startup before
// the server begins accepting requests.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
