package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-booking/internal/interval"
)

// BookingService guards booking creation against double-booking and resolves
// reassignments when a booking must move to another room.
type BookingService struct {
	rooms        RoomCatalog
	bookings     BookingStore
	roles        RoleResolver
	availability *AvailabilityService
	locks        *roomLockSet
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(rooms RoomCatalog, bookings BookingStore, roles RoleResolver, availability *AvailabilityService, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(rooms, bookings, roles, availability, idGenerator, now, nil)
}

// NewBookingServiceWithLogger is NewBookingService with an explicit logger.
func NewBookingServiceWithLogger(rooms RoomCatalog, bookings BookingStore, roles RoleResolver, availability *AvailabilityService, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		rooms:        rooms,
		bookings:     bookings,
		roles:        roles,
		availability: availability,
		locks:        newRoomLockSet(),
		idGenerator:  idGenerator,
		now:          now,
		logger:       logger,
	}
}

// Create validates the requested slot and inserts a booking when the room is
// free. The overlap check and the insert run under the room's lock, so two
// concurrent creates for the same room cannot both pass the check. The
// returned error is a *ConflictError carrying the reserved interval when the
// slot is taken.
func (s *BookingService) Create(ctx context.Context, params CreateBookingParams) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}

	vErr := &ValidationError{}
	if params.RoomID == "" {
		vErr.add("room_id", "room id is required")
	}
	if params.RequesterID == "" {
		vErr.add("requester_id", "requester id is required")
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
		return Booking{}, vErr
	}

	room, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		return Booking{}, mapStoreError(err)
	}

	release := s.locks.lock(room.ID)
	defer release()

	if err := s.ensureSlotFree(ctx, room.ID, params.Start, params.End); err != nil {
		return Booking{}, err
	}

	status := BookingApproved
	if room.RequireApproval {
		status = BookingPending
	}

	createdAt := s.now()
	booking := Booking{
		ID:          s.idGenerator(),
		RoomID:      room.ID,
		RequesterID: params.RequesterID,
		Start:       params.Start,
		End:         params.End,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if err := s.bookings.InsertBooking(ctx, booking); err != nil {
		return Booking{}, mapStoreError(err)
	}

	serviceLogger(ctx, s.logger, "booking", "create", "room_id", room.ID).
		Info("booking created", "booking_id", booking.ID, "status", string(booking.Status))
	return booking, nil
}

// Reassign moves a displaced booking to the nearest candidate room that
// satisfies the original room's capacity and feature constraints and is free
// for the booked slot. The displaced booking survives untouched when no
// candidate qualifies (ErrNoRoomAvailable).
func (s *BookingService) Reassign(ctx context.Context, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapStoreError(err)
	}
	if booking.Status.IsTerminal() {
		vErr := &ValidationError{}
		vErr.add("status", "booking is no longer active")
		return Booking{}, vErr
	}

	origRoom, err := s.rooms.GetRoom(ctx, booking.RoomID)
	if err != nil {
		return Booking{}, mapStoreError(err)
	}

	role, err := s.roles.GetUserRole(ctx, booking.RequesterID)
	if err != nil {
		return Booking{}, fmt.Errorf("%w: resolving role for %s: %v", ErrTransient, booking.RequesterID, err)
	}

	candidates, err := s.rooms.FindCandidateRooms(ctx, CandidateFilter{
		MinCapacity:       origRoom.Capacity,
		RequireMultimedia: origRoom.HasMultimedia,
		RequireProjector:  origRoom.HasProjector,
		IncludeRestricted: role.CanUseRestrictedRooms(),
		ExcludeRoomID:     origRoom.ID,
	})
	if err != nil {
		return Booking{}, mapStoreError(err)
	}

	orderCandidates(candidates, origRoom.ID)

	logger := serviceLogger(ctx, s.logger, "booking", "reassign", "booking_id", booking.ID)

	for _, candidate := range candidates {
		placed, err := s.tryPlace(ctx, booking, candidate)
		if err != nil {
			return Booking{}, err
		}
		if placed.ID == "" {
			continue
		}
		logger.Info("booking reassigned",
			"from_room", origRoom.ID,
			"to_room", candidate.ID,
			"new_booking_id", placed.ID,
		)
		return placed, nil
	}

	logger.Info("no candidate room available", "candidates_considered", len(candidates))
	return Booking{}, ErrNoRoomAvailable
}

// tryPlace attempts to move the booking onto the candidate room. A zero
// booking with nil error means the candidate was busy.
func (s *BookingService) tryPlace(ctx context.Context, booking Booking, candidate Room) (Booking, error) {
	release := s.locks.lock(candidate.ID)
	defer release()

	busy, err := s.availability.BusyIntervals(ctx, candidate.ID, booking.Start, booking.End)
	if err != nil {
		return Booking{}, err
	}

	slot := interval.Interval{Start: booking.Start, End: booking.End}
	for _, iv := range busy {
		if interval.Overlaps(slot, iv) {
			return Booking{}, nil
		}
	}

	replacement := booking
	replacement.ID = s.idGenerator()
	replacement.RoomID = candidate.ID
	replacement.UpdatedAt = s.now()

	if err := s.bookings.ReplaceBooking(ctx, booking.ID, replacement); err != nil {
		return Booking{}, mapStoreError(err)
	}
	return replacement, nil
}

// ensureSlotFree checks the requested window against the room's busy set.
func (s *BookingService) ensureSlotFree(ctx context.Context, roomID string, start, end time.Time) error {
	busy, err := s.availability.BusyIntervals(ctx, roomID, start, end)
	if err != nil {
		return err
	}

	requested := interval.Interval{Start: start, End: end}
	for _, iv := range busy {
		if interval.Overlaps(requested, iv) {
			return &ConflictError{RoomID: roomID, Conflicting: iv}
		}
	}
	return nil
}

// Approve transitions a pending booking to approved.
func (s *BookingService) Approve(ctx context.Context, bookingID string) error {
	return s.transition(ctx, bookingID, "approve", []BookingStatus{BookingPending}, BookingApproved)
}

// Reject declines a pending or approved booking.
func (s *BookingService) Reject(ctx context.Context, bookingID string) error {
	return s.transition(ctx, bookingID, "reject", []BookingStatus{BookingPending, BookingApproved}, BookingRejected)
}

// Cancel withdraws any non-terminal booking.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) error {
	return s.transition(ctx, bookingID, "cancel", []BookingStatus{BookingPending, BookingApproved, BookingCheckedIn}, BookingCancelled)
}

// CheckIn records the holder's arrival for an approved booking.
func (s *BookingService) CheckIn(ctx context.Context, bookingID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}

	ok, err := s.bookings.SetCheckedIn(ctx, bookingID, s.now())
	if err != nil {
		return mapStoreError(err)
	}
	if ok {
		serviceLogger(ctx, s.logger, "booking", "check_in").
			Info("booking checked in", "booking_id", bookingID)
		return nil
	}
	return s.explainFailedTransition(ctx, bookingID)
}

// transition applies the first conditional status update whose expected
// status matches the stored record. The conditional predicate makes the write
// a no-op against records the sweep or another caller already moved.
func (s *BookingService) transition(ctx context.Context, bookingID, operation string, allowed []BookingStatus, next BookingStatus) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}

	at := s.now()
	for _, expected := range allowed {
		ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID, expected, next, at)
		if err != nil {
			return mapStoreError(err)
		}
		if ok {
			serviceLogger(ctx, s.logger, "booking", operation).
				Info("booking status updated",
					"booking_id", bookingID,
					"from", string(expected),
					"to", string(next),
				)
			return nil
		}
	}
	return s.explainFailedTransition(ctx, bookingID)
}

// explainFailedTransition distinguishes a missing booking from one whose
// current status does not admit the requested transition.
func (s *BookingService) explainFailedTransition(ctx context.Context, bookingID string) error {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return mapStoreError(err)
	}
	vErr := &ValidationError{}
	vErr.add("status", fmt.Sprintf("booking is %s", string(booking.Status)))
	return vErr
}

// orderCandidates sorts rooms by distance from the original room, breaking
// ties by the lower room ID. The distance metric compares the numeric
// component of the room identifiers; the real proximity metric is a
// deployment concern, the contract only requires a reproducible total order.
func orderCandidates(rooms []Room, originID string) {
	origin := roomNumber(originID)
	sort.SliceStable(rooms, func(i, j int) bool {
		di := absInt(roomNumber(rooms[i].ID) - origin)
		dj := absInt(roomNumber(rooms[j].ID) - origin)
		if di != dj {
			return di < dj
		}
		return rooms[i].ID < rooms[j].ID
	})
}

// roomNumber extracts the trailing decimal component of a room identifier,
// returning 0 when there is none.
func roomNumber(id string) int {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	// Guard against absurdly long digit runs in opaque identifiers.
	if end-start > 9 {
		start = end - 9
	}
	digits := strings.TrimLeft(id[start:end], "0")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
