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

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a SQLite-backed booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, room_id, requester_id, start_time, end_time, status, checked_in, created_at, updated_at`

// CreateBooking inserts a new booking record.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := fmt.Sprintf(`INSERT INTO bookings (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, bookingColumns)
	_, err := r.pool.db.ExecContext(ctx, query, bookingInsertArgs(booking)...)
	return mapSQLiteError(err)
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = ?`, bookingColumns)
	booking, err := scanBooking(r.pool.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, err
	}
	return booking, nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
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

// ListActiveBookings returns non-terminal bookings for the room whose
// half-open interval intersects [from, to), ordered by start then id.
func (r *BookingRepository) ListActiveBookings(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE room_id = ?
		  AND status IN (%s)
		  AND end_time > ?
		  AND start_time < ?
		ORDER BY start_time ASC, id ASC
	`, bookingColumns, activeStatusPlaceholders())

	args := []any{roomID}
	for _, status := range persistence.ActiveBookingStatuses() {
		args = append(args, string(status))
	}
	args = append(args, formatTime(from), formatTime(to))

	return r.queryBookings(ctx, query, args...)
}

// ReplaceBooking deletes the booking identified by oldID and inserts the
// replacement within a single transaction, so no reader can observe the slot
// as both deleted and not yet recreated.
func (r *BookingRepository) ReplaceBooking(ctx context.Context, oldID string, replacement persistence.Booking) error {
	if oldID == "" || replacement.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`DELETE FROM bookings WHERE id = ?`, oldID)
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

		query := fmt.Sprintf(`INSERT INTO bookings (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, bookingColumns)
		if _, err := tx.Exec(query, bookingInsertArgs(replacement)...); err != nil {
			return mapSQLiteError(err)
		}
		return nil
	})
}

// UpdateBookingStatus transitions a booking from expected to next. The status
// predicate makes the write a no-op when another operation already moved the
// record, which is what keeps sweep passes idempotent.
func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id string, expected, next persistence.BookingStatus, at time.Time) (bool, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
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

// SetCheckedIn records the holder's arrival for an approved booking.
func (r *BookingRepository) SetCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE bookings SET checked_in = 1, status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(persistence.BookingCheckedIn), formatTime(at), id, string(persistence.BookingApproved),
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

// ListBookingsDueForBreach returns approved, not-checked-in bookings whose
// start is at or before the cutoff.
func (r *BookingRepository) ListBookingsDueForBreach(ctx context.Context, cutoff time.Time) ([]persistence.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE status = ? AND checked_in = 0 AND start_time <= ?
		ORDER BY start_time ASC, id ASC
	`, bookingColumns)
	return r.queryBookings(ctx, query, string(persistence.BookingApproved), formatTime(cutoff))
}

// ListBookingsDueForCompletion returns approved or checked-in bookings whose
// end is at or before the cutoff.
func (r *BookingRepository) ListBookingsDueForCompletion(ctx context.Context, cutoff time.Time) ([]persistence.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE status IN (?, ?) AND end_time <= ?
		ORDER BY end_time ASC, id ASC
	`, bookingColumns)
	return r.queryBookings(ctx, query,
		string(persistence.BookingApproved),
		string(persistence.BookingCheckedIn),
		formatTime(cutoff),
	)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return bookings, nil
}

func bookingInsertArgs(booking persistence.Booking) []any {
	return []any{
		booking.ID,
		booking.RoomID,
		booking.RequesterID,
		formatTime(booking.Start),
		formatTime(booking.End),
		string(booking.Status),
		boolToInt(booking.CheckedIn),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	}
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var status string
	var checkedIn int
	var start, end, createdAt, updatedAt string

	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.RequesterID,
		&start,
		&end,
		&status,
		&checkedIn,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	booking.Status = persistence.BookingStatus(status)
	booking.CheckedIn = checkedIn != 0

	if booking.Start, err = parseTime(start); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(end); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func activeStatusPlaceholders() string {
	statuses := persistence.ActiveBookingStatuses()
	placeholders := make([]string, len(statuses))
	for i := range statuses {
		placeholders[i] = "?"
	}
	return strings.Join(placeholders, ", ")
}
