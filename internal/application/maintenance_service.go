package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MaintenanceService plans maintenance windows and surfaces the bookings a
// planned window displaces, so an administrator can drive each of them
// through reassignment.
type MaintenanceService struct {
	rooms       RoomCatalog
	maintenance MaintenanceStore
	bookings    BookingStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMaintenanceService wires dependencies for maintenance planning.
func NewMaintenanceService(rooms RoomCatalog, maintenance MaintenanceStore, bookings BookingStore, idGenerator func() string, now func() time.Time) *MaintenanceService {
	return NewMaintenanceServiceWithLogger(rooms, maintenance, bookings, idGenerator, now, nil)
}

// NewMaintenanceServiceWithLogger is NewMaintenanceService with an explicit
// logger.
func NewMaintenanceServiceWithLogger(rooms RoomCatalog, maintenance MaintenanceStore, bookings BookingStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		rooms:       rooms,
		maintenance: maintenance,
		bookings:    bookings,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Schedule validates and inserts a new maintenance window in the scheduled
// state. The window starts blocking the room immediately for availability
// purposes; the sweep flips it to active when its start time passes.
func (s *MaintenanceService) Schedule(ctx context.Context, params ScheduleMaintenanceParams) (MaintenanceWindow, error) {
	if s == nil {
		return MaintenanceWindow{}, fmt.Errorf("MaintenanceService is nil")
	}

	vErr := &ValidationError{}
	if params.RoomID == "" {
		vErr.add("room_id", "room id is required")
	}
	if params.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if params.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !params.Start.IsZero() && !params.End.IsZero() && !params.Start.Before(params.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		return MaintenanceWindow{}, vErr
	}

	if _, err := s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		return MaintenanceWindow{}, mapStoreError(err)
	}

	createdAt := s.now()
	window := MaintenanceWindow{
		ID:          s.idGenerator(),
		RoomID:      params.RoomID,
		Start:       params.Start,
		End:         params.End,
		Description: params.Description,
		Status:      MaintenanceScheduled,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if err := s.maintenance.InsertMaintenance(ctx, window); err != nil {
		return MaintenanceWindow{}, mapStoreError(err)
	}

	serviceLogger(ctx, s.logger, "maintenance", "schedule", "room_id", params.RoomID).
		Info("maintenance window scheduled", "window_id", window.ID)
	return window, nil
}

// DisplacedBookings returns the non-terminal bookings that overlap the
// window on its room, ordered by start time.
func (s *MaintenanceService) DisplacedBookings(ctx context.Context, windowID string) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("MaintenanceService is nil")
	}

	window, err := s.maintenance.GetMaintenance(ctx, windowID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	bookings, err := s.bookings.ListActiveBookings(ctx, window.RoomID, window.Start, window.End)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return bookings, nil
}
