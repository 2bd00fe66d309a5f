package persistence

import "time"

// BookingStatus enumerates the lifecycle states of a booking record.
type BookingStatus string

const (
	// BookingPending awaits administrative approval.
	BookingPending BookingStatus = "pending"
	// BookingApproved is confirmed and counts against room availability.
	BookingApproved BookingStatus = "approved"
	// BookingCheckedIn marks a booking whose holder arrived.
	BookingCheckedIn BookingStatus = "checked_in"
	// BookingCompleted is the terminal state of a fulfilled booking.
	BookingCompleted BookingStatus = "completed"
	// BookingRejected is the terminal state of a declined request.
	BookingRejected BookingStatus = "rejected"
	// BookingCancelled is the terminal state of a withdrawn booking.
	BookingCancelled BookingStatus = "cancelled"
	// BookingBreach is the terminal state of a confirmed booking whose
	// holder failed to check in within the grace window.
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

// ActiveBookingStatuses lists the statuses that contribute to a room's busy
// set and participate in overlap checks.
func ActiveBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingApproved, BookingCheckedIn}
}

// MaintenanceStatus enumerates the time-driven states of a maintenance window.
type MaintenanceStatus string

const (
	// MaintenanceScheduled is a planned window that has not started yet.
	MaintenanceScheduled MaintenanceStatus = "scheduled"
	// MaintenanceActive is a window currently in progress.
	MaintenanceActive MaintenanceStatus = "active"
	// MaintenanceCompleted is the terminal state of a finished window.
	MaintenanceCompleted MaintenanceStatus = "completed"
)

// Room represents a bookable room catalog entry.
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

// Booking represents a reservation of a room for a half-open time range
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

// MaintenanceWindow represents a planned maintenance period for a room. Once
// active it blocks the room exactly like a booking.
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
