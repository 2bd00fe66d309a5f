package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	rooms := newRoomCatalogAdapter(sqlite.NewRoomRepository(pool))
	bookings := newBookingStoreAdapter(sqlite.NewBookingRepository(pool))
	maintenance := newMaintenanceStoreAdapter(sqlite.NewMaintenanceRepository(pool))
	roles := fixedRoleResolver{role: application.RoleStudent}

	availability := application.NewAvailabilityServiceWithLogger(rooms, bookings, maintenance, cfg.AvailabilityHorizon, now, logger)
	bookingService := application.NewBookingServiceWithLogger(rooms, bookings, roles, availability, idGenerator, now, logger)
	maintenanceService := application.NewMaintenanceServiceWithLogger(rooms, maintenance, bookings, idGenerator, now, logger)
	sweepService := application.NewSweepServiceWithLogger(bookings, maintenance, cfg.CheckInGrace, now, logger)

	logger.Info("booking engine started",
		"dsn", cfg.SQLiteDSN,
		"sweep_interval", cfg.SweepInterval.String(),
		"checkin_grace", cfg.CheckInGrace.String(),
		"availability_horizon", cfg.AvailabilityHorizon.String(),
	)

	engine := &engine{
		sweeps:      sweepService,
		bookings:    bookingService,
		maintenance: maintenanceService,
		logger:      logger,
	}
	engine.run(ctx, cfg.SweepInterval)
	logger.Info("booking engine stopped")
}

// engine drives the status transition sweep and resolves the bookings that
// newly started maintenance windows displace.
type engine struct {
	sweeps      *application.SweepService
	bookings    *application.BookingService
	maintenance *application.MaintenanceService
	logger      *slog.Logger
}

// run ticks the sweep until the context is cancelled. A tick that overlaps a
// still-executing sweep is skipped; the next one catches up because every
// transition rule works from the wall clock.
func (e *engine) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := e.sweeps.RunSweep(ctx)
			if err != nil {
				if errors.Is(err, application.ErrSweepInProgress) {
					continue
				}
				e.logger.Error("sweep failed", "error", err)
				continue
			}
			for _, windowID := range report.StartedWindowIDs {
				e.resolveDisplacements(ctx, windowID)
			}
		}
	}
}

// resolveDisplacements reassigns every booking displaced by the window. A
// booking with no qualifying candidate room stays on the original room and is
// surfaced in the log for manual follow-up.
func (e *engine) resolveDisplacements(ctx context.Context, windowID string) {
	displaced, err := e.maintenance.DisplacedBookings(ctx, windowID)
	if err != nil {
		e.logger.Error("failed to list displaced bookings", "window_id", windowID, "error", err)
		return
	}

	for _, booking := range displaced {
		placed, err := e.bookings.Reassign(ctx, booking.ID)
		switch {
		case errors.Is(err, application.ErrNoRoomAvailable):
			e.logger.Warn("no room available for displaced booking",
				"window_id", windowID,
				"booking_id", booking.ID,
			)
		case err != nil:
			e.logger.Error("failed to reassign displaced booking",
				"window_id", windowID,
				"booking_id", booking.ID,
				"error", err,
			)
		default:
			e.logger.Info("displaced booking reassigned",
				"window_id", windowID,
				"booking_id", booking.ID,
				"new_booking_id", placed.ID,
				"room_id", placed.RoomID,
			)
		}
	}
}

// fixedRoleResolver assigns every requester the same role. Deployments with a
// user directory replace this with a directory-backed resolver.
type fixedRoleResolver struct {
	role application.Role
}

func (r fixedRoleResolver) GetUserRole(ctx context.Context, userID string) (application.Role, error) {
	return r.role, nil
}

type roomCatalogAdapter struct {
	repo persistence.RoomRepository
}

func newRoomCatalogAdapter(repo persistence.RoomRepository) *roomCatalogAdapter {
	return &roomCatalogAdapter{repo: repo}
}

func (a *roomCatalogAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomCatalogAdapter) FindCandidateRooms(ctx context.Context, filter application.CandidateFilter) ([]application.Room, error) {
	stored, err := a.repo.FindCandidateRooms(ctx, persistence.CandidateRoomFilter{
		MinCapacity:       filter.MinCapacity,
		RequireMultimedia: filter.RequireMultimedia,
		RequireProjector:  filter.RequireProjector,
		IncludeRestricted: filter.IncludeRestricted,
		ExcludeRoomID:     filter.ExcludeRoomID,
	})
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(stored))
	for _, room := range stored {
		rooms = append(rooms, toApplicationRoom(room))
	}
	return rooms, nil
}

type bookingStoreAdapter struct {
	repo persistence.BookingRepository
}

func newBookingStoreAdapter(repo persistence.BookingRepository) *bookingStoreAdapter {
	return &bookingStoreAdapter{repo: repo}
}

func (a *bookingStoreAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingStoreAdapter) InsertBooking(ctx context.Context, booking application.Booking) error {
	return a.repo.CreateBooking(ctx, toPersistenceBooking(booking))
}

func (a *bookingStoreAdapter) ListActiveBookings(ctx context.Context, roomID string, from, to time.Time) ([]application.Booking, error) {
	stored, err := a.repo.ListActiveBookings(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(stored), nil
}

func (a *bookingStoreAdapter) ReplaceBooking(ctx context.Context, oldID string, replacement application.Booking) error {
	return a.repo.ReplaceBooking(ctx, oldID, toPersistenceBooking(replacement))
}

func (a *bookingStoreAdapter) UpdateBookingStatus(ctx context.Context, id string, expected, next application.BookingStatus, at time.Time) (bool, error) {
	return a.repo.UpdateBookingStatus(ctx, id, persistence.BookingStatus(expected), persistence.BookingStatus(next), at)
}

func (a *bookingStoreAdapter) SetCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	return a.repo.SetCheckedIn(ctx, id, at)
}

func (a *bookingStoreAdapter) ListBookingsDueForBreach(ctx context.Context, cutoff time.Time) ([]application.Booking, error) {
	stored, err := a.repo.ListBookingsDueForBreach(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(stored), nil
}

func (a *bookingStoreAdapter) ListBookingsDueForCompletion(ctx context.Context, cutoff time.Time) ([]application.Booking, error) {
	stored, err := a.repo.ListBookingsDueForCompletion(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(stored), nil
}

type maintenanceStoreAdapter struct {
	repo persistence.MaintenanceRepository
}

func newMaintenanceStoreAdapter(repo persistence.MaintenanceRepository) *maintenanceStoreAdapter {
	return &maintenanceStoreAdapter{repo: repo}
}

func (a *maintenanceStoreAdapter) GetMaintenance(ctx context.Context, id string) (application.MaintenanceWindow, error) {
	stored, err := a.repo.GetMaintenance(ctx, id)
	if err != nil {
		return application.MaintenanceWindow{}, err
	}
	return toApplicationWindow(stored), nil
}

func (a *maintenanceStoreAdapter) InsertMaintenance(ctx context.Context, window application.MaintenanceWindow) error {
	return a.repo.CreateMaintenance(ctx, toPersistenceWindow(window))
}

func (a *maintenanceStoreAdapter) ListActiveMaintenance(ctx context.Context, roomID string, from, to time.Time) ([]application.MaintenanceWindow, error) {
	stored, err := a.repo.ListActiveMaintenance(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}
	return toApplicationWindows(stored), nil
}

func (a *maintenanceStoreAdapter) ListMaintenanceDueToStart(ctx context.Context, cutoff time.Time) ([]application.MaintenanceWindow, error) {
	stored, err := a.repo.ListMaintenanceDueToStart(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return toApplicationWindows(stored), nil
}

func (a *maintenanceStoreAdapter) ListMaintenanceDueToFinish(ctx context.Context, cutoff time.Time) ([]application.MaintenanceWindow, error) {
	stored, err := a.repo.ListMaintenanceDueToFinish(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return toApplicationWindows(stored), nil
}

func (a *maintenanceStoreAdapter) UpdateMaintenanceStatus(ctx context.Context, id string, expected, next application.MaintenanceStatus, at time.Time) (bool, error) {
	return a.repo.UpdateMaintenanceStatus(ctx, id, persistence.MaintenanceStatus(expected), persistence.MaintenanceStatus(next), at)
}

func toApplicationRoom(room persistence.Room) application.Room {
	return application.Room{
		ID:                 room.ID,
		Name:               room.Name,
		Capacity:           room.Capacity,
		HasMultimedia:      room.HasMultimedia,
		HasProjector:       room.HasProjector,
		RequireApproval:    room.RequireApproval,
		Restricted:         room.Restricted,
		MaxBookingDuration: room.MaxBookingDuration,
		CreatedAt:          room.CreatedAt,
		UpdatedAt:          room.UpdatedAt,
	}
}

func toApplicationBooking(booking persistence.Booking) application.Booking {
	return application.Booking{
		ID:          booking.ID,
		RoomID:      booking.RoomID,
		RequesterID: booking.RequesterID,
		Start:       booking.Start,
		End:         booking.End,
		Status:      application.BookingStatus(booking.Status),
		CheckedIn:   booking.CheckedIn,
		CreatedAt:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
	}
}

func toApplicationBookings(stored []persistence.Booking) []application.Booking {
	bookings := make([]application.Booking, 0, len(stored))
	for _, booking := range stored {
		bookings = append(bookings, toApplicationBooking(booking))
	}
	return bookings
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:          booking.ID,
		RoomID:      booking.RoomID,
		RequesterID: booking.RequesterID,
		Start:       booking.Start,
		End:         booking.End,
		Status:      persistence.BookingStatus(booking.Status),
		CheckedIn:   booking.CheckedIn,
		CreatedAt:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
	}
}

func toApplicationWindow(window persistence.MaintenanceWindow) application.MaintenanceWindow {
	return application.MaintenanceWindow{
		ID:          window.ID,
		RoomID:      window.RoomID,
		Start:       window.Start,
		End:         window.End,
		Description: window.Description,
		Status:      application.MaintenanceStatus(window.Status),
		CreatedAt:   window.CreatedAt,
		UpdatedAt:   window.UpdatedAt,
	}
}

func toApplicationWindows(stored []persistence.MaintenanceWindow) []application.MaintenanceWindow {
	windows := make([]application.MaintenanceWindow, 0, len(stored))
	for _, window := range stored {
		windows = append(windows, toApplicationWindow(window))
	}
	return windows
}

func toPersistenceWindow(window application.MaintenanceWindow) persistence.MaintenanceWindow {
	return persistence.MaintenanceWindow{
		ID:          window.ID,
		RoomID:      window.RoomID,
		Start:       window.Start,
		End:         window.End,
		Description: window.Description,
		Status:      persistence.MaintenanceStatus(window.Status),
		CreatedAt:   window.CreatedAt,
		UpdatedAt:   window.UpdatedAt,
	}
}
