package application

import (
	"context"
	"time"
)

// CandidateFilter narrows candidate-room queries issued during reassignment.
type CandidateFilter struct {
	MinCapacity       int
	RequireMultimedia bool
	RequireProjector  bool
	IncludeRestricted bool
	ExcludeRoomID     string
}

// RoomCatalog exposes the room lookups the engine consumes. The engine never
// mutates rooms.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	FindCandidateRooms(ctx context.Context, filter CandidateFilter) ([]Room, error)
}

// BookingStore captures the booking persistence interactions needed by the
// engine. UpdateBookingStatus is a conditional write: it only applies when
// the stored status still matches expected, reporting false otherwise.
type BookingStore interface {
	GetBooking(ctx context.Context, id string) (Booking, error)
	InsertBooking(ctx context.Context, booking Booking) error
	ListActiveBookings(ctx context.Context, roomID string, from, to time.Time) ([]Booking, error)
	// ReplaceBooking atomically deletes the booking identified by oldID and
	// inserts the replacement.
	ReplaceBooking(ctx context.Context, oldID string, replacement Booking) error
	UpdateBookingStatus(ctx context.Context, id string, expected, next BookingStatus, at time.Time) (bool, error)
	// SetCheckedIn transitions an approved booking to checked-in and records
	// the arrival flag. Reports false when the booking is not approved.
	SetCheckedIn(ctx context.Context, id string, at time.Time) (bool, error)
	ListBookingsDueForBreach(ctx context.Context, cutoff time.Time) ([]Booking, error)
	ListBookingsDueForCompletion(ctx context.Context, cutoff time.Time) ([]Booking, error)
}

// MaintenanceStore captures the maintenance persistence interactions needed
// by the engine.
type MaintenanceStore interface {
	GetMaintenance(ctx context.Context, id string) (MaintenanceWindow, error)
	InsertMaintenance(ctx context.Context, window MaintenanceWindow) error
	ListActiveMaintenance(ctx context.Context, roomID string, from, to time.Time) ([]MaintenanceWindow, error)
	ListMaintenanceDueToStart(ctx context.Context, cutoff time.Time) ([]MaintenanceWindow, error)
	ListMaintenanceDueToFinish(ctx context.Context, cutoff time.Time) ([]MaintenanceWindow, error)
	UpdateMaintenanceStatus(ctx context.Context, id string, expected, next MaintenanceStatus, at time.Time) (bool, error)
}

// RoleResolver resolves the role of a requester. It is an external
// collaborator; failures are reported as transient.
type RoleResolver interface {
	GetUserRole(ctx context.Context, userID string) (Role, error)
}
