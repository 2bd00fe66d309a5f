package application

import "time"

// Role classifies the requester of a booking for candidate-room filtering.
type Role string

const (
	// RoleStudent is the default requester role.
	RoleStudent Role = "student"
	// RoleLecturer may book rooms restricted to teaching staff.
	RoleLecturer Role = "lecturer"
	// RoleAdmin may book any room.
	RoleAdmin Role = "admin"
)

// CanUseRestrictedRooms reports whether the role may occupy rooms flagged as
// restricted to lecturers.
func (r Role) CanUseRestrictedRooms() bool {
	return r == RoleLecturer || r == RoleAdmin
}

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

const (
	// BookingPending awaits administrative approval.
	BookingPending BookingStatus = "pending"
	// BookingApproved is confirmed and blocks the room.
	BookingApproved BookingStatus = "approved"
	// BookingCheckedIn marks an occupied booking.
	BookingCheckedIn BookingStatus = "checked_in"
	// BookingCompleted is terminal: the booking ran its course.
	BookingCompleted BookingStatus = "completed"
	// BookingRejected is terminal: the request was declined.
	BookingRejected BookingStatus = "rejected"
	// BookingCancelled is terminal: the booking was withdrawn.
	BookingCancelled BookingStatus = "cancelled"
	// BookingBreach is terminal: the holder missed the check-in window.
	BookingBreach BookingStatus = "breach"
)

// IsTerminal reports whether the status admits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingRejected, BookingCancelled, BookingBreach:
		return true
	}
	return false
}

// MaintenanceStatus enumerates the time-driven states of a maintenance window.
type MaintenanceStatus string

const (
	// MaintenanceScheduled is a planned window that has not started.
	MaintenanceScheduled MaintenanceStatus = "scheduled"
	// MaintenanceActive is a window in progress.
	MaintenanceActive MaintenanceStatus = "active"
	// MaintenanceCompleted is terminal.
	MaintenanceCompleted MaintenanceStatus = "completed"
)

// Room represents a bookable room as seen by the engine.
type Room struct {
	ID                 string
	Name               string
	Capacity           int
	HasMultimedia      bool
	HasProjector       bool
	RequireApproval    bool
	Restricted         bool
	MaxBookingDuration time.Duration
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Booking represents a reservation of a room for the half-open range
// [Start, End).
type Booking struct {
	ID          string
	RoomID      string
	RequesterID string
	Start       time.Time
	End         time.Time
	Status      BookingStatus
	CheckedIn   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaintenanceWindow represents a planned maintenance period for a room.
type MaintenanceWindow struct {
	ID          string
	RoomID      string
	Start       time.Time
	End         time.Time
	Description string
	Status      MaintenanceStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	RoomID      string
	RequesterID string
	Start       time.Time
	End         time.Time
}

// ScheduleMaintenanceParams wraps the data required to plan a maintenance
// window.
type ScheduleMaintenanceParams struct {
	RoomID      string
	Start       time.Time
	End         time.Time
	Description string
}

// SweepReport counts the transitions applied by a single sweep pass.
// StartedWindowIDs carries the maintenance windows the pass activated, so the
// caller can resolve the bookings those windows displace.
type SweepReport struct {
	MaintenanceStarted   int
	MaintenanceCompleted int
	BookingsBreached     int
	BookingsCompleted    int
	StartedWindowIDs     []string
}

// Total returns the number of records the sweep transitioned.
func (r SweepReport) Total() int {
	return r.MaintenanceStarted + r.MaintenanceCompleted + r.BookingsBreached + r.BookingsCompleted
}
