package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the ordered schema history. Entries are append-only; the
// applied version is tracked in schema_migrations.
var migrations = []string{
	`CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'staff',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'individual',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		location TEXT NOT NULL DEFAULT '',
		hourly_rate INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE equipment (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		daily_rate INTEGER NOT NULL DEFAULT 0,
		condition TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE classes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		instructor TEXT NOT NULL DEFAULT '',
		room_id TEXT REFERENCES rooms(id) ON DELETE SET NULL,
		session_length INTEGER NOT NULL CHECK (session_length > 0),
		fee INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE class_sessions (
		class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		starts_at TEXT NOT NULL,
		PRIMARY KEY (class_id, starts_at)
	)`,
	`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		service_type TEXT NOT NULL CHECK (service_type IN ('room', 'equipment')),
		room_id TEXT REFERENCES rooms(id) ON DELETE SET NULL,
		equipment_id TEXT REFERENCES equipment(id) ON DELETE SET NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		price INTEGER NOT NULL DEFAULT 0,
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		status TEXT NOT NULL DEFAULT 'active',
		returned_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_at > start_at)
	)`,
	`CREATE INDEX idx_bookings_window ON bookings (service_type, start_at, end_at)`,
	`CREATE TABLE enrollments (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (client_id, class_id)
	)`,
	`CREATE TABLE attendance (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		session TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (client_id, class_id, session)
	)`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		booking_id TEXT REFERENCES bookings(id) ON DELETE SET NULL,
		type TEXT NOT NULL DEFAULT 'income',
		amount INTEGER NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		paid_on TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE calendar_events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('booking', 'class_session')),
		source_id TEXT NOT NULL,
		title TEXT NOT NULL,
		room_id TEXT,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_calendar_events_window ON calendar_events (start_at, end_at)`,
}

// Migrate applies any schema migrations not yet recorded in
// schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	var current int
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		statement := migrations[version-1]
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("sqlite: apply migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`,
				version,
			); err != nil {
				return fmt.Errorf("sqlite: record migration %d: %w", version, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}
