package persistence

import (
	"context"
	"time"
)

// CandidateRoomFilter narrows candidate queries issued during reassignment.
type CandidateRoomFilter struct {
	MinCapacity       int
	RequireMultimedia bool
	RequireProjector  bool
	IncludeRestricted bool
	ExcludeRoomID     string
}

// RoomRepository exposes room catalog operations.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	FindCandidateRooms(ctx context.Context, filter CandidateRoomFilter) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingRepository stores booking records. UpdateBookingStatus is the
// conditional-update primitive: it only writes when the record still carries
// the expected status, which is what makes sweep rules idempotent and safe
// against concurrent transitions.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	// ListActiveBookings returns non-terminal bookings for the room whose
	// interval intersects [from, to), ordered by start then id.
	ListActiveBookings(ctx context.Context, roomID string, from, to time.Time) ([]Booking, error)
	// ReplaceBooking atomically deletes the booking identified by oldID and
	// inserts the replacement in the same transaction.
	ReplaceBooking(ctx context.Context, oldID string, replacement Booking) error
	// UpdateBookingStatus transitions the booking from expected to next. It
	// reports false without error when the stored status no longer matches.
	UpdateBookingStatus(ctx context.Context, id string, expected, next BookingStatus, at time.Time) (bool, error)
	// SetCheckedIn records the holder's arrival. Guarded by the approved
	// status so it cannot race a sweep transition.
	SetCheckedIn(ctx context.Context, id string, at time.Time) (bool, error)
	// ListBookingsDueForBreach returns approved, not-checked-in bookings whose
	// start is at or before the cutoff.
	ListBookingsDueForBreach(ctx context.Context, cutoff time.Time) ([]Booking, error)
	// ListBookingsDueForCompletion returns approved or checked-in bookings
	// whose end is at or before the cutoff.
	ListBookingsDueForCompletion(ctx context.Context, cutoff time.Time) ([]Booking, error)
}

// MaintenanceRepository stores maintenance windows with the same conditional
// update discipline as bookings.
type MaintenanceRepository interface {
	CreateMaintenance(ctx context.Context, window MaintenanceWindow) error
	GetMaintenance(ctx context.Context, id string) (MaintenanceWindow, error)
	// ListActiveMaintenance returns scheduled and active windows for the room
	// whose interval intersects [from, to), ordered by start then id.
	ListActiveMaintenance(ctx context.Context, roomID string, from, to time.Time) ([]MaintenanceWindow, error)
	// ListMaintenanceDueToStart returns scheduled windows whose start is at or
	// before the cutoff.
	ListMaintenanceDueToStart(ctx context.Context, cutoff time.Time) ([]MaintenanceWindow, error)
	// ListMaintenanceDueToFinish returns active windows whose end is at or
	// before the cutoff.
	ListMaintenanceDueToFinish(ctx context.Context, cutoff time.Time) ([]MaintenanceWindow, error)
	UpdateMaintenanceStatus(ctx context.Context, id string, expected, next MaintenanceStatus, at time.Time) (bool, error)
	DeleteMaintenance(ctx context.Context, id string) error
}
