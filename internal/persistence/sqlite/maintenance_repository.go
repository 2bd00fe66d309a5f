package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// MaintenanceRepository implements persistence.MaintenanceRepository using SQLite.
type MaintenanceRepository struct {
	pool *ConnectionPool
}

// NewMaintenanceRepository creates a SQLite-backed maintenance repository.
func NewMaintenanceRepository(pool *ConnectionPool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

const maintenanceColumns = `id, room_id, start_time, end_time, description, status, created_at, updated_at`

// CreateMaintenance inserts a new maintenance window.
func (r *MaintenanceRepository) CreateMaintenance(ctx context.Context, window persistence.MaintenanceWindow) error {
	if window.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := fmt.Sprintf(`INSERT INTO maintenance_windows (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, maintenanceColumns)
	_, err := r.pool.db.ExecContext(ctx, query,
		window.ID,
		window.RoomID,
		formatTime(window.Start),
		formatTime(window.End),
		window.Description,
		string(window.Status),
		formatTime(window.CreatedAt),
		formatTime(window.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// GetMaintenance retrieves a maintenance window by ID.
func (r *MaintenanceRepository) GetMaintenance(ctx context.Context, id string) (persistence.MaintenanceWindow, error) {
	if id == "" {
		return persistence.MaintenanceWindow{}, persistence.ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM maintenance_windows WHERE id = ?`, maintenanceColumns)
	window, err := scanMaintenance(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.MaintenanceWindow{}, persistence.ErrNotFound
		}
		return persistence.MaintenanceWindow{}, err
	}
	return window, nil
}

// ListActiveMaintenance returns scheduled and active windows for the room
// whose interval intersects [from, to), ordered by start then id.
func (r *MaintenanceRepository) ListActiveMaintenance(ctx context.Context, roomID string, from, to time.Time) ([]persistence.MaintenanceWindow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM maintenance_windows
		WHERE room_id = ?
		  AND status IN (?, ?)
		  AND end_time > ?
		  AND start_time < ?
		ORDER BY start_time ASC, id ASC
	`, maintenanceColumns)
	return r.queryMaintenance(ctx, query,
		roomID,
		string(persistence.MaintenanceScheduled),
		string(persistence.MaintenanceActive),
		formatTime(from),
		formatTime(to),
	)
}

// ListMaintenanceDueToStart returns scheduled windows whose start is at or
// before the cutoff.
func (r *MaintenanceRepository) ListMaintenanceDueToStart(ctx context.Context, cutoff time.Time) ([]persistence.MaintenanceWindow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM maintenance_windows
		WHERE status = ? AND start_time <= ?
		ORDER BY start_time ASC, id ASC
	`, maintenanceColumns)
	return r.queryMaintenance(ctx, query, string(persistence.MaintenanceScheduled), formatTime(cutoff))
}

// ListMaintenanceDueToFinish returns active windows whose end is at or before
// the cutoff.
func (r *MaintenanceRepository) ListMaintenanceDueToFinish(ctx context.Context, cutoff time.Time) ([]persistence.MaintenanceWindow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM maintenance_windows
		WHERE status = ? AND end_time <= ?
		ORDER BY end_time ASC, id ASC
	`, maintenanceColumns)
	return r.queryMaintenance(ctx, query, string(persistence.MaintenanceActive), formatTime(cutoff))
}

// UpdateMaintenanceStatus transitions a window from expected to next with the
// same conditional predicate as booking updates.
func (r *MaintenanceRepository) UpdateMaintenanceStatus(ctx context.Context, id string, expected, next persistence.MaintenanceStatus, at time.Time) (bool, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE maintenance_windows SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(next), formatTime(at), id, string(expected),
	)
	if err != nil {
		return false, mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteMaintenance removes a maintenance window by ID.
func (r *MaintenanceRepository) DeleteMaintenance(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM maintenance_windows WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *MaintenanceRepository) queryMaintenance(ctx context.Context, query string, args ...any) ([]persistence.MaintenanceWindow, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var windows []persistence.MaintenanceWindow
	for rows.Next() {
		window, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return windows, nil
}

func scanMaintenance(row rowScanner) (persistence.MaintenanceWindow, error) {
	var window persistence.MaintenanceWindow
	var status string
	var start, end, createdAt, updatedAt string

	err := row.Scan(
		&window.ID,
		&window.RoomID,
		&start,
		&end,
		&window.Description,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.MaintenanceWindow{}, err
	}

	window.Status = persistence.MaintenanceStatus(status)

	if window.Start, err = parseTime(start); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	if window.End, err = parseTime(end); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	if window.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	if window.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.MaintenanceWindow{}, err
	}
	return window, nil
}
