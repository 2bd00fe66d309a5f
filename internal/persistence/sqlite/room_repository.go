package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a SQLite-backed room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, name, capacity, has_multimedia, has_projector, require_approval, restricted, max_booking_minutes, created_at, updated_at`

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := fmt.Sprintf(`INSERT INTO rooms (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, roomColumns)
	_, err := r.pool.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		boolToInt(room.HasMultimedia),
		boolToInt(room.HasProjector),
		boolToInt(room.RequireApproval),
		boolToInt(room.Restricted),
		int(room.MaxBookingDuration/time.Minute),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapSQLiteError(err)
}

// UpdateRoom replaces the mutable fields of an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE rooms
		SET name = ?, capacity = ?, has_multimedia = ?, has_projector = ?,
			require_approval = ?, restricted = ?, max_booking_minutes = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		room.Name,
		room.Capacity,
		boolToInt(room.HasMultimedia),
		boolToInt(room.HasProjector),
		boolToInt(room.RequireApproval),
		boolToInt(room.Restricted),
		int(room.MaxBookingDuration/time.Minute),
		formatTime(room.UpdatedAt),
		room.ID,
	)
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

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = ?`, roomColumns)
	room, err := scanRoom(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, err
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms ORDER BY name ASC, id ASC`, roomColumns)
	return r.queryRooms(ctx, query)
}

// FindCandidateRooms returns rooms satisfying the capacity, feature and
// restriction constraints, ordered by ID for a deterministic base ordering.
func (r *RoomRepository) FindCandidateRooms(ctx context.Context, filter persistence.CandidateRoomFilter) ([]persistence.Room, error) {
	conditions := []string{"capacity >= ?"}
	args := []any{filter.MinCapacity}

	if filter.RequireMultimedia {
		conditions = append(conditions, "has_multimedia = 1")
	}
	if filter.RequireProjector {
		conditions = append(conditions, "has_projector = 1")
	}
	if !filter.IncludeRestricted {
		conditions = append(conditions, "restricted = 0")
	}
	if filter.ExcludeRoomID != "" {
		conditions = append(conditions, "id != ?")
		args = append(args, filter.ExcludeRoomID)
	}

	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE %s ORDER BY id ASC`,
		roomColumns, strings.Join(conditions, " AND "))
	return r.queryRooms(ctx, query, args...)
}

// DeleteRoom removes a room by ID. Bookings and maintenance windows keep the
// room referenced, so deletion fails while dependent records exist.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
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

func (r *RoomRepository) queryRooms(ctx context.Context, query string, args ...any) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return rooms, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var multimedia, projector, approval, restricted, maxMinutes int
	var createdAt, updatedAt string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&multimedia,
		&projector,
		&approval,
		&restricted,
		&maxMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Room{}, err
	}

	room.HasMultimedia = multimedia != 0
	room.HasProjector = projector != 0
	room.RequireApproval = approval != 0
	room.Restricted = restricted != 0
	room.MaxBookingDuration = time.Duration(maxMinutes) * time.Minute

	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
