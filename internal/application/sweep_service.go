package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultCheckInGrace is the time after a booking's start during which the
// holder may still check in before the booking is marked as breached.
const DefaultCheckInGrace = 10 * time.Minute

// SweepService advances booking and maintenance records through their
// time-driven transitions. Every write is conditional on the record's current
// status, so running a sweep twice produces the same final state as running
// it once, and a missed interval is corrected by the next run.
type SweepService struct {
	bookings    BookingStore
	maintenance MaintenanceStore
	grace       time.Duration
	now         func() time.Time
	logger      *slog.Logger
	running     atomic.Bool
}

// NewSweepService wires dependencies for the periodic sweep. A non-positive
// grace period falls back to DefaultCheckInGrace.
func NewSweepService(bookings BookingStore, maintenance MaintenanceStore, grace time.Duration, now func() time.Time) *SweepService {
	return NewSweepServiceWithLogger(bookings, maintenance, grace, now, nil)
}

// NewSweepServiceWithLogger is NewSweepService with an explicit logger.
func NewSweepServiceWithLogger(bookings BookingStore, maintenance MaintenanceStore, grace time.Duration, now func() time.Time, logger *slog.Logger) *SweepService {
	if grace <= 0 {
		grace = DefaultCheckInGrace
	}
	if now == nil {
		now = time.Now
	}
	return &SweepService{
		bookings:    bookings,
		maintenance: maintenance,
		grace:       grace,
		now:         now,
		logger:      logger,
	}
}

// RunSweep applies the transition rules in their fixed order and reports the
// number of records moved. An invocation that overlaps a running sweep
// returns ErrSweepInProgress without touching storage.
func (s *SweepService) RunSweep(ctx context.Context) (SweepReport, error) {
	if s == nil {
		return SweepReport{}, fmt.Errorf("SweepService is nil")
	}
	if !s.running.CompareAndSwap(false, true) {
		return SweepReport{}, ErrSweepInProgress
	}
	defer s.running.Store(false)

	now := s.now()
	logger := serviceLogger(ctx, s.logger, "sweep", "run")
	var report SweepReport

	// Rule 1: maintenance windows follow the wall clock.
	started, err := s.startDueMaintenance(ctx, now)
	if err != nil {
		return report, err
	}
	report.MaintenanceStarted = len(started)
	report.StartedWindowIDs = started

	finished, err := s.finishDueMaintenance(ctx, now)
	if err != nil {
		return report, err
	}
	report.MaintenanceCompleted = finished

	// Rule 2: approved bookings whose holder never arrived breach once the
	// grace window has elapsed.
	breached, err := s.breachMissedCheckIns(ctx, now)
	if err != nil {
		return report, err
	}
	report.BookingsBreached = breached

	// Rules 3 and 4: bookings past their end complete, checked-in first.
	completed, err := s.completeFinishedBookings(ctx, now)
	if err != nil {
		return report, err
	}
	report.BookingsCompleted = completed

	if report.Total() > 0 {
		logger.Info("sweep applied transitions",
			"maintenance_started", report.MaintenanceStarted,
			"maintenance_completed", report.MaintenanceCompleted,
			"bookings_breached", report.BookingsBreached,
			"bookings_completed", report.BookingsCompleted,
		)
	}
	return report, nil
}

func (s *SweepService) startDueMaintenance(ctx context.Context, now time.Time) ([]string, error) {
	due, err := s.maintenance.ListMaintenanceDueToStart(ctx, now)
	if err != nil {
		return nil, mapStoreError(err)
	}

	var started []string
	for _, window := range due {
		ok, err := s.maintenance.UpdateMaintenanceStatus(ctx, window.ID, MaintenanceScheduled, MaintenanceActive, now)
		if err != nil {
			return started, mapStoreError(err)
		}
		if ok {
			started = append(started, window.ID)
		}
	}
	return started, nil
}

func (s *SweepService) finishDueMaintenance(ctx context.Context, now time.Time) (int, error) {
	due, err := s.maintenance.ListMaintenanceDueToFinish(ctx, now)
	if err != nil {
		return 0, mapStoreError(err)
	}

	count := 0
	for _, window := range due {
		ok, err := s.maintenance.UpdateMaintenanceStatus(ctx, window.ID, MaintenanceActive, MaintenanceCompleted, now)
		if err != nil {
			return count, mapStoreError(err)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (s *SweepService) breachMissedCheckIns(ctx context.Context, now time.Time) (int, error) {
	// start + grace <= now, expressed as start <= now - grace.
	due, err := s.bookings.ListBookingsDueForBreach(ctx, now.Add(-s.grace))
	if err != nil {
		return 0, mapStoreError(err)
	}

	count := 0
	for _, booking := range due {
		ok, err := s.bookings.UpdateBookingStatus(ctx, booking.ID, BookingApproved, BookingBreach, now)
		if err != nil {
			return count, mapStoreError(err)
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (s *SweepService) completeFinishedBookings(ctx context.Context, now time.Time) (int, error) {
	due, err := s.bookings.ListBookingsDueForCompletion(ctx, now)
	if err != nil {
		return 0, mapStoreError(err)
	}

	count := 0
	// Checked-in bookings complete before approved ones; a booking breached
	// by the previous rule no longer matches either predicate and is left
	// alone.
	for _, expected := range []BookingStatus{BookingCheckedIn, BookingApproved} {
		for _, booking := range due {
			if booking.Status != expected {
				continue
			}
			ok, err := s.bookings.UpdateBookingStatus(ctx, booking.ID, expected, BookingCompleted, now)
			if err != nil {
				return count, mapStoreError(err)
			}
			if ok {
				count++
			}
		}
	}
	return count, nil
}
