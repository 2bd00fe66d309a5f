package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/room-booking/internal/interval"
)

// DefaultHorizon is the forward-looking window over which availability is
// computed when the caller does not supply explicit bounds.
const DefaultHorizon = 7 * 24 * time.Hour

// violationLogCacheSize bounds the de-duplication cache for invariant
// violation log lines. Violations are surfaced as errors on every read; only
// the log emission is de-duplicated.
const violationLogCacheSize = 256

// AvailabilityService computes a room's busy and free time structure over a
// horizon by merging active bookings with scheduled and running maintenance.
type AvailabilityService struct {
	rooms       RoomCatalog
	bookings    BookingStore
	maintenance MaintenanceStore
	horizon     time.Duration
	now         func() time.Time
	logger      *slog.Logger
	seen        *lru.Cache[string, struct{}]
}

// NewAvailabilityService wires dependencies for availability queries. A
// non-positive horizon falls back to DefaultHorizon.
func NewAvailabilityService(rooms RoomCatalog, bookings BookingStore, maintenance MaintenanceStore, horizon time.Duration, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(rooms, bookings, maintenance, horizon, now, nil)
}

// NewAvailabilityServiceWithLogger is NewAvailabilityService with an explicit
// logger.
func NewAvailabilityServiceWithLogger(rooms RoomCatalog, bookings BookingStore, maintenance MaintenanceStore, horizon time.Duration, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if now == nil {
		now = time.Now
	}
	seen, _ := lru.New[string, struct{}](violationLogCacheSize)
	return &AvailabilityService{
		rooms:       rooms,
		bookings:    bookings,
		maintenance: maintenance,
		horizon:     horizon,
		now:         now,
		logger:      logger,
		seen:        seen,
	}
}

// Horizon returns the default availability window anchored at the current
// time.
func (s *AvailabilityService) Horizon() (time.Time, time.Time) {
	start := s.now()
	return start, start.Add(s.horizon)
}

// BusyIntervals returns the room's unavailability within [from, to) as a
// disjoint, start-sorted sequence. Non-terminal bookings and scheduled or
// active maintenance windows contribute; each interval is clipped to the
// horizon.
func (s *AvailabilityService) BusyIntervals(ctx context.Context, roomID string, from, to time.Time) ([]interval.Interval, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}

	vErr := &ValidationError{}
	if roomID == "" {
		vErr.add("room_id", "room id is required")
	}
	if !to.After(from) {
		vErr.add("horizon", "horizon end must be after horizon start")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, mapStoreError(err)
	}

	bookings, err := s.bookings.ListActiveBookings(ctx, roomID, from, to)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := s.checkBookingInvariant(ctx, roomID, bookings); err != nil {
		return nil, err
	}

	windows, err := s.maintenance.ListActiveMaintenance(ctx, roomID, from, to)
	if err != nil {
		return nil, mapStoreError(err)
	}

	horizon := interval.Interval{Start: from, End: to}
	busy := make([]interval.Interval, 0, len(bookings)+len(windows))
	for _, booking := range bookings {
		clipped := interval.Clip(interval.Interval{Start: booking.Start, End: booking.End}, horizon)
		if !clipped.IsZero() {
			busy = append(busy, clipped)
		}
	}
	for _, window := range windows {
		clipped := interval.Clip(interval.Interval{Start: window.Start, End: window.End}, horizon)
		if !clipped.IsZero() {
			busy = append(busy, clipped)
		}
	}

	interval.SortByStart(busy)
	return interval.MergeSorted(busy), nil
}

// FreeIntervals returns the room's availability within [from, to). Together
// with BusyIntervals the result reconstructs the horizon exactly.
func (s *AvailabilityService) FreeIntervals(ctx context.Context, roomID string, from, to time.Time) ([]interval.Interval, error) {
	busy, err := s.BusyIntervals(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}
	return interval.Complement(busy, interval.Interval{Start: from, End: to}), nil
}

// checkBookingInvariant verifies that no two active bookings on the room
// overlap. A violation means the conflict guard was bypassed; the read aborts
// so the corruption is never silently folded into a merged busy set.
func (s *AvailabilityService) checkBookingInvariant(ctx context.Context, roomID string, bookings []Booking) error {
	// ListActiveBookings returns records ordered by start, so checking each
	// consecutive pair detects any overlap in the set.
	for i := 1; i < len(bookings); i++ {
		prev, cur := bookings[i-1], bookings[i]
		a := interval.Interval{Start: prev.Start, End: prev.End}
		b := interval.Interval{Start: cur.Start, End: cur.End}
		if !interval.Overlaps(a, b) {
			continue
		}

		violation := &InvariantViolationError{
			RoomID: roomID,
			Detail: fmt.Sprintf("active bookings %s and %s overlap", prev.ID, cur.ID),
		}

		key := roomID + "|" + prev.ID + "|" + cur.ID
		if _, dup := s.seen.Get(key); !dup {
			s.seen.Add(key, struct{}{})
			serviceLogger(ctx, s.logger, "availability", "busy_intervals", "room_id", roomID).
				Error("detected overlapping active bookings",
					"booking_a", prev.ID,
					"booking_b", cur.ID,
				)
		}
		return violation
	}
	return nil
}
