package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/interval"
	"github.com/example/room-booking/internal/persistence"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrNoRoomAvailable is returned when reassignment exhausts every
	// candidate room without finding a free slot.
	ErrNoRoomAvailable = errors.New("application: no room available")
	// ErrTransient is returned when a collaborator is temporarily
	// unavailable; callers may retry with backoff.
	ErrTransient = errors.New("application: transient failure")
	// ErrSweepInProgress is returned when a sweep invocation overlaps a
	// running one. The overlapping invocation is skipped, not queued.
	ErrSweepInProgress = errors.New("application: sweep already in progress")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports a booking attempt that overlaps an existing reserved
// interval. The conflicting interval is carried so callers can suggest
// alternatives.
type ConflictError struct {
	RoomID      string
	Conflicting interval.Interval
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	return fmt.Sprintf("room %s is reserved from %s to %s",
		c.RoomID,
		c.Conflicting.Start.Format(time.RFC3339),
		c.Conflicting.End.Format(time.RFC3339))
}

// InvariantViolationError reports an impossible stored state, such as two
// active bookings overlapping on the same room. It aborts the current
// operation; the engine never attempts a silent repair.
type InvariantViolationError struct {
	RoomID string
	Detail string
}

// Error implements the error interface.
func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation on room %s: %s", e.RoomID, e.Detail)
}

// mapStoreError translates persistence sentinels into the application
// taxonomy.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "room does not exist")
		return vErr
	}
	return err
}
