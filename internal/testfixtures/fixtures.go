package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

var (
	roomCounter        uint64
	bookingCounter     uint64
	maintenanceCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures the generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoomFixture returns a deterministic room record with optional overrides.
func NewRoomFixture(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  10,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) {
		r.ID = id
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *persistence.Room) {
		r.Capacity = capacity
	}
}

// WithRoomFeatures sets the multimedia and projector flags.
func WithRoomFeatures(multimedia, projector bool) RoomOption {
	return func(r *persistence.Room) {
		r.HasMultimedia = multimedia
		r.HasProjector = projector
	}
}

// WithRoomApprovalRequired marks the room as requiring booking approval.
func WithRoomApprovalRequired() RoomOption {
	return func(r *persistence.Room) {
		r.RequireApproval = true
	}
}

// WithRoomRestricted marks the room as restricted.
func WithRoomRestricted() RoomOption {
	return func(r *persistence.Room) {
		r.Restricted = true
	}
}

// WithRoomMaxBookingDuration sets the per-booking duration cap.
func WithRoomMaxBookingDuration(d time.Duration) RoomOption {
	return func(r *persistence.Room) {
		r.MaxBookingDuration = d
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingOption configures the generated booking fixture.
type BookingOption func(*persistence.Booking)

// NewBookingFixture returns a deterministic booking record with optional
// overrides. Consecutive fixtures occupy consecutive one-hour slots so the
// defaults never overlap each other.
func NewBookingFixture(opts ...BookingOption) persistence.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	booking := persistence.Booking{
		ID:          fmt.Sprintf("booking-%03d", idx),
		RoomID:      "room-001",
		RequesterID: fmt.Sprintf("user-%03d", idx),
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      persistence.BookingApproved,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *persistence.Booking) {
		b.ID = id
	}
}

// WithBookingRoom places the booking in the given room.
func WithBookingRoom(roomID string) BookingOption {
	return func(b *persistence.Booking) {
		b.RoomID = roomID
	}
}

// WithBookingRequester overrides the requester.
func WithBookingRequester(userID string) BookingOption {
	return func(b *persistence.Booking) {
		b.RequesterID = userID
	}
}

// WithBookingSlot sets the booked interval.
func WithBookingSlot(start, end time.Time) BookingOption {
	return func(b *persistence.Booking) {
		b.Start = start
		b.End = end
	}
}

// WithBookingStatus overrides the booking status.
func WithBookingStatus(status persistence.BookingStatus) BookingOption {
	return func(b *persistence.Booking) {
		b.Status = status
	}
}

// WithBookingCheckedIn marks the booking as checked in.
func WithBookingCheckedIn() BookingOption {
	return func(b *persistence.Booking) {
		b.CheckedIn = true
		b.Status = persistence.BookingCheckedIn
	}
}

// -------------------------- Maintenance fixtures --------------------------

// MaintenanceOption configures the generated maintenance fixture.
type MaintenanceOption func(*persistence.MaintenanceWindow)

// NewMaintenanceFixture returns a deterministic maintenance window with
// optional overrides.
func NewMaintenanceFixture(opts ...MaintenanceOption) persistence.MaintenanceWindow {
	idx := atomic.AddUint64(&maintenanceCounter, 1)
	start := referenceTime.Add(24*time.Hour + time.Duration(idx)*2*time.Hour)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	window := persistence.MaintenanceWindow{
		ID:          fmt.Sprintf("maint-%03d", idx),
		RoomID:      "room-001",
		Start:       start,
		End:         start.Add(time.Hour),
		Description: fmt.Sprintf("Maintenance %03d", idx),
		Status:      persistence.MaintenanceScheduled,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&window)
	}
	return window
}

// WithMaintenanceID overrides the generated window ID.
func WithMaintenanceID(id string) MaintenanceOption {
	return func(w *persistence.MaintenanceWindow) {
		w.ID = id
	}
}

// WithMaintenanceRoom places the window on the given room.
func WithMaintenanceRoom(roomID string) MaintenanceOption {
	return func(w *persistence.MaintenanceWindow) {
		w.RoomID = roomID
	}
}

// WithMaintenanceSlot sets the maintenance interval.
func WithMaintenanceSlot(start, end time.Time) MaintenanceOption {
	return func(w *persistence.MaintenanceWindow) {
		w.Start = start
		w.End = end
	}
}

// WithMaintenanceStatus overrides the window status.
func WithMaintenanceStatus(status persistence.MaintenanceStatus) MaintenanceOption {
	return func(w *persistence.MaintenanceWindow) {
		w.Status = status
	}
}
