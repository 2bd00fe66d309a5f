// Package sqlite implements the persistence repositories on top of a SQLite
// database accessed through the CGo-free modernc.org driver.
package sqlite

import (
	"context"
	"fmt"
	"time"
)

// Timestamps are stored as RFC3339 UTC text. Lexicographic comparison in SQL
// matches chronological order for this representation.
const timeLayout = time.RFC3339

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		has_multimedia INTEGER NOT NULL DEFAULT 0,
		has_projector INTEGER NOT NULL DEFAULT 0,
		require_approval INTEGER NOT NULL DEFAULT 0,
		restricted INTEGER NOT NULL DEFAULT 0,
		max_booking_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		requester_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL,
		checked_in INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (start_time < end_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_room_status_start
		ON bookings (room_id, status, start_time)`,
	`CREATE TABLE IF NOT EXISTS maintenance_windows (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (start_time < end_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_room_status_start
		ON maintenance_windows (room_id, status, start_time)`,
}

// Migrate creates the schema when it does not exist yet. Statements are
// individually idempotent, so running Migrate on every startup is safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
