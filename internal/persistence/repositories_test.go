package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/testfixtures"
)

func seedRoom(t *testing.T, harness *testfixtures.SQLiteHarness, opts ...testfixtures.RoomOption) persistence.Room {
	t.Helper()
	room := testfixtures.NewRoomFixture(opts...)
	if err := harness.Rooms.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	return room
}

func seedBooking(t *testing.T, harness *testfixtures.SQLiteHarness, opts ...testfixtures.BookingOption) persistence.Booking {
	t.Helper()
	booking := testfixtures.NewBookingFixture(opts...)
	if err := harness.Bookings.CreateBooking(context.Background(), booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	return booking
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, reads, updates, and deletes rooms", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness,
			testfixtures.WithRoomCapacity(12),
			testfixtures.WithRoomFeatures(true, false),
			testfixtures.WithRoomMaxBookingDuration(2*time.Hour),
		)

		fetched, err := harness.Rooms.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if fetched.Capacity != 12 || !fetched.HasMultimedia || fetched.HasProjector {
			t.Fatalf("unexpected room: %+v", fetched)
		}
		if fetched.MaxBookingDuration != 2*time.Hour {
			t.Fatalf("expected 2h booking cap, got %v", fetched.MaxBookingDuration)
		}

		fetched.Name = "Renamed"
		fetched.UpdatedAt = fetched.UpdatedAt.Add(time.Minute)
		if err := harness.Rooms.UpdateRoom(ctx, fetched); err != nil {
			t.Fatalf("UpdateRoom failed: %v", err)
		}

		updated, err := harness.Rooms.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetRoom after update failed: %v", err)
		}
		if updated.Name != "Renamed" {
			t.Fatalf("expected renamed room, got %q", updated.Name)
		}

		if err := harness.Rooms.DeleteRoom(ctx, room.ID); err != nil {
			t.Fatalf("DeleteRoom failed: %v", err)
		}
		if _, err := harness.Rooms.GetRoom(ctx, room.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("rejects duplicate identifiers", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		if err := harness.Rooms.CreateRoom(ctx, room); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := testfixtures.NewRoomFixture(testfixtures.WithRoomCapacity(0))
		if err := harness.Rooms.CreateRoom(ctx, room); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("filters candidate rooms", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		seedRoom(t, harness, testfixtures.WithRoomID("cand-a"), testfixtures.WithRoomCapacity(20), testfixtures.WithRoomFeatures(true, true))
		seedRoom(t, harness, testfixtures.WithRoomID("cand-b"), testfixtures.WithRoomCapacity(5), testfixtures.WithRoomFeatures(true, true))
		seedRoom(t, harness, testfixtures.WithRoomID("cand-c"), testfixtures.WithRoomCapacity(20))
		seedRoom(t, harness, testfixtures.WithRoomID("cand-d"), testfixtures.WithRoomCapacity(20), testfixtures.WithRoomFeatures(true, true), testfixtures.WithRoomRestricted())
		seedRoom(t, harness, testfixtures.WithRoomID("cand-e"), testfixtures.WithRoomCapacity(20), testfixtures.WithRoomFeatures(true, true))

		filter := persistence.CandidateRoomFilter{
			MinCapacity:       10,
			RequireMultimedia: true,
			RequireProjector:  true,
			ExcludeRoomID:     "cand-e",
		}

		rooms, err := harness.Rooms.FindCandidateRooms(ctx, filter)
		if err != nil {
			t.Fatalf("FindCandidateRooms failed: %v", err)
		}
		if len(rooms) != 1 || rooms[0].ID != "cand-a" {
			t.Fatalf("expected only cand-a, got %+v", rooms)
		}

		filter.IncludeRestricted = true
		rooms, err = harness.Rooms.FindCandidateRooms(ctx, filter)
		if err != nil {
			t.Fatalf("FindCandidateRooms with restricted failed: %v", err)
		}
		if len(rooms) != 2 || rooms[0].ID != "cand-a" || rooms[1].ID != "cand-d" {
			t.Fatalf("expected cand-a and cand-d in order, got %+v", rooms)
		}
	})
}

func TestBookingRepository(t *testing.T) {
	t.Parallel()

	t.Run("round-trips bookings in UTC", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		loc := time.FixedZone("JST", 9*60*60)
		start := time.Date(2024, 3, 14, 19, 0, 0, 0, loc)
		booking := seedBooking(t, harness,
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(start, start.Add(time.Hour)),
		)

		fetched, err := harness.Bookings.GetBooking(ctx, booking.ID)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if !fetched.Start.Equal(start) {
			t.Fatalf("start drifted: stored %v, got %v", start, fetched.Start)
		}
		if fetched.Start.Location() != time.UTC {
			t.Fatalf("expected UTC storage, got %v", fetched.Start.Location())
		}
		if fetched.Status != persistence.BookingApproved || fetched.CheckedIn {
			t.Fatalf("unexpected booking state: %+v", fetched)
		}

		if err := harness.Bookings.DeleteBooking(ctx, booking.ID); err != nil {
			t.Fatalf("DeleteBooking failed: %v", err)
		}
		if _, err := harness.Bookings.GetBooking(ctx, booking.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("enforces referential and interval constraints", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		orphan := testfixtures.NewBookingFixture(testfixtures.WithBookingRoom("no-such-room"))
		if err := harness.Bookings.CreateBooking(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}

		room := seedRoom(t, harness)
		inverted := testfixtures.NewBookingFixture(
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(testfixtures.ReferenceTime().Add(time.Hour), testfixtures.ReferenceTime()),
		)
		if err := harness.Bookings.CreateBooking(ctx, inverted); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}

		booking := seedBooking(t, harness, testfixtures.WithBookingRoom(room.ID))
		if err := harness.Bookings.CreateBooking(ctx, booking); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("lists active bookings intersecting the window", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		base := testfixtures.ReferenceTime()
		from, to := base.Add(10*time.Hour), base.Add(14*time.Hour)

		inside := seedBooking(t, harness,
			testfixtures.WithBookingID("win-inside"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(11*time.Hour), base.Add(12*time.Hour)),
		)
		straddling := seedBooking(t, harness,
			testfixtures.WithBookingID("win-straddle"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(9*time.Hour), base.Add(11*time.Hour)),
		)
		// Ends exactly at the window start: half-open, so excluded.
		seedBooking(t, harness,
			testfixtures.WithBookingID("win-before"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(9*time.Hour), base.Add(10*time.Hour)),
		)
		// Starts exactly at the window end: excluded.
		seedBooking(t, harness,
			testfixtures.WithBookingID("win-after"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(14*time.Hour), base.Add(15*time.Hour)),
		)
		// Cancelled bookings never block the room.
		seedBooking(t, harness,
			testfixtures.WithBookingID("win-cancelled"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(11*time.Hour), base.Add(13*time.Hour)),
			testfixtures.WithBookingStatus(persistence.BookingCancelled),
		)

		active, err := harness.Bookings.ListActiveBookings(ctx, room.ID, from, to)
		if err != nil {
			t.Fatalf("ListActiveBookings failed: %v", err)
		}
		if len(active) != 2 {
			t.Fatalf("expected 2 active bookings, got %d: %+v", len(active), active)
		}
		if active[0].ID != straddling.ID || active[1].ID != inside.ID {
			t.Fatalf("expected start-ordered results, got %q then %q", active[0].ID, active[1].ID)
		}
	})

	t.Run("applies status updates conditionally", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		booking := seedBooking(t, harness, testfixtures.WithBookingRoom(room.ID))
		at := testfixtures.ReferenceTime().Add(30 * time.Hour)

		ok, err := harness.Bookings.UpdateBookingStatus(ctx, booking.ID, persistence.BookingApproved, persistence.BookingCompleted, at)
		if err != nil || !ok {
			t.Fatalf("expected conditional update to apply, got ok=%v err=%v", ok, err)
		}

		// The stored status moved on, so the same transition is a no-op.
		ok, err = harness.Bookings.UpdateBookingStatus(ctx, booking.ID, persistence.BookingApproved, persistence.BookingCompleted, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("expected repeat transition to report false")
		}

		fetched, err := harness.Bookings.GetBooking(ctx, booking.ID)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if fetched.Status != persistence.BookingCompleted {
			t.Fatalf("expected completed, got %q", fetched.Status)
		}
		if !fetched.UpdatedAt.Equal(at) {
			t.Fatalf("expected updated_at %v, got %v", at, fetched.UpdatedAt)
		}
	})

	t.Run("check-in requires an approved booking", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		approved := seedBooking(t, harness, testfixtures.WithBookingRoom(room.ID))
		pending := seedBooking(t, harness,
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingStatus(persistence.BookingPending),
		)
		at := testfixtures.ReferenceTime().Add(30 * time.Hour)

		ok, err := harness.Bookings.SetCheckedIn(ctx, approved.ID, at)
		if err != nil || !ok {
			t.Fatalf("expected check-in to apply, got ok=%v err=%v", ok, err)
		}
		fetched, err := harness.Bookings.GetBooking(ctx, approved.ID)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if fetched.Status != persistence.BookingCheckedIn || !fetched.CheckedIn {
			t.Fatalf("expected checked-in booking, got %+v", fetched)
		}

		ok, err = harness.Bookings.SetCheckedIn(ctx, pending.ID, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("expected check-in on pending booking to report false")
		}
	})

	t.Run("replaces bookings atomically", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		first := seedRoom(t, harness)
		second := seedRoom(t, harness)
		booking := seedBooking(t, harness, testfixtures.WithBookingRoom(first.ID))

		replacement := booking
		replacement.ID = booking.ID + "-moved"
		replacement.RoomID = second.ID

		if err := harness.Bookings.ReplaceBooking(ctx, booking.ID, replacement); err != nil {
			t.Fatalf("ReplaceBooking failed: %v", err)
		}
		if _, err := harness.Bookings.GetBooking(ctx, booking.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected original removed, got %v", err)
		}
		moved, err := harness.Bookings.GetBooking(ctx, replacement.ID)
		if err != nil {
			t.Fatalf("GetBooking for replacement failed: %v", err)
		}
		if moved.RoomID != second.ID {
			t.Fatalf("expected booking in %q, got %q", second.ID, moved.RoomID)
		}
	})

	t.Run("replace rolls back when the original is gone", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		replacement := testfixtures.NewBookingFixture(testfixtures.WithBookingRoom(room.ID))

		err := harness.Bookings.ReplaceBooking(ctx, "vanished", replacement)
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := harness.Bookings.GetBooking(ctx, replacement.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("replacement must not be inserted, got %v", err)
		}
	})

	t.Run("lists bookings due for breach and completion", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		base := testfixtures.ReferenceTime()

		missed := seedBooking(t, harness,
			testfixtures.WithBookingID("due-missed"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(time.Hour), base.Add(2*time.Hour)),
		)
		seedBooking(t, harness,
			testfixtures.WithBookingID("due-later"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(5*time.Hour), base.Add(6*time.Hour)),
		)
		occupied := seedBooking(t, harness,
			testfixtures.WithBookingID("due-occupied"),
			testfixtures.WithBookingRoom(room.ID),
			testfixtures.WithBookingSlot(base.Add(2*time.Hour), base.Add(3*time.Hour)),
			testfixtures.WithBookingCheckedIn(),
		)

		breach, err := harness.Bookings.ListBookingsDueForBreach(ctx, base.Add(90*time.Minute))
		if err != nil {
			t.Fatalf("ListBookingsDueForBreach failed: %v", err)
		}
		if len(breach) != 1 || breach[0].ID != missed.ID {
			t.Fatalf("expected only the missed booking, got %+v", breach)
		}

		completion, err := harness.Bookings.ListBookingsDueForCompletion(ctx, base.Add(3*time.Hour))
		if err != nil {
			t.Fatalf("ListBookingsDueForCompletion failed: %v", err)
		}
		if len(completion) != 2 {
			t.Fatalf("expected 2 due bookings, got %+v", completion)
		}
		if completion[0].ID != missed.ID || completion[1].ID != occupied.ID {
			t.Fatalf("expected end-ordered results, got %q then %q", completion[0].ID, completion[1].ID)
		}
	})
}

func TestMaintenanceRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, reads, and deletes windows", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		window := testfixtures.NewMaintenanceFixture(testfixtures.WithMaintenanceRoom(room.ID))
		if err := harness.Maintenance.CreateMaintenance(ctx, window); err != nil {
			t.Fatalf("CreateMaintenance failed: %v", err)
		}

		fetched, err := harness.Maintenance.GetMaintenance(ctx, window.ID)
		if err != nil {
			t.Fatalf("GetMaintenance failed: %v", err)
		}
		if fetched.Status != persistence.MaintenanceScheduled || fetched.Description != window.Description {
			t.Fatalf("unexpected window: %+v", fetched)
		}

		if err := harness.Maintenance.DeleteMaintenance(ctx, window.ID); err != nil {
			t.Fatalf("DeleteMaintenance failed: %v", err)
		}
		if _, err := harness.Maintenance.GetMaintenance(ctx, window.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("lists windows by state and deadline", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		base := testfixtures.ReferenceTime()

		scheduled := testfixtures.NewMaintenanceFixture(
			testfixtures.WithMaintenanceRoom(room.ID),
			testfixtures.WithMaintenanceSlot(base.Add(time.Hour), base.Add(3*time.Hour)),
		)
		active := testfixtures.NewMaintenanceFixture(
			testfixtures.WithMaintenanceRoom(room.ID),
			testfixtures.WithMaintenanceSlot(base.Add(4*time.Hour), base.Add(5*time.Hour)),
			testfixtures.WithMaintenanceStatus(persistence.MaintenanceActive),
		)
		done := testfixtures.NewMaintenanceFixture(
			testfixtures.WithMaintenanceRoom(room.ID),
			testfixtures.WithMaintenanceSlot(base.Add(6*time.Hour), base.Add(7*time.Hour)),
			testfixtures.WithMaintenanceStatus(persistence.MaintenanceCompleted),
		)
		for _, w := range []persistence.MaintenanceWindow{scheduled, active, done} {
			if err := harness.Maintenance.CreateMaintenance(ctx, w); err != nil {
				t.Fatalf("CreateMaintenance failed: %v", err)
			}
		}

		blocking, err := harness.Maintenance.ListActiveMaintenance(ctx, room.ID, base, base.Add(10*time.Hour))
		if err != nil {
			t.Fatalf("ListActiveMaintenance failed: %v", err)
		}
		if len(blocking) != 2 {
			t.Fatalf("expected scheduled and active windows, got %+v", blocking)
		}
		if blocking[0].ID != scheduled.ID || blocking[1].ID != active.ID {
			t.Fatalf("expected start-ordered windows, got %q then %q", blocking[0].ID, blocking[1].ID)
		}

		starting, err := harness.Maintenance.ListMaintenanceDueToStart(ctx, base.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("ListMaintenanceDueToStart failed: %v", err)
		}
		if len(starting) != 1 || starting[0].ID != scheduled.ID {
			t.Fatalf("expected only the scheduled window, got %+v", starting)
		}

		finishing, err := harness.Maintenance.ListMaintenanceDueToFinish(ctx, base.Add(5*time.Hour))
		if err != nil {
			t.Fatalf("ListMaintenanceDueToFinish failed: %v", err)
		}
		if len(finishing) != 1 || finishing[0].ID != active.ID {
			t.Fatalf("expected only the active window, got %+v", finishing)
		}
	})

	t.Run("applies status updates conditionally", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)

		room := seedRoom(t, harness)
		window := testfixtures.NewMaintenanceFixture(testfixtures.WithMaintenanceRoom(room.ID))
		if err := harness.Maintenance.CreateMaintenance(ctx, window); err != nil {
			t.Fatalf("CreateMaintenance failed: %v", err)
		}
		at := testfixtures.ReferenceTime().Add(40 * time.Hour)

		ok, err := harness.Maintenance.UpdateMaintenanceStatus(ctx, window.ID, persistence.MaintenanceScheduled, persistence.MaintenanceActive, at)
		if err != nil || !ok {
			t.Fatalf("expected transition to apply, got ok=%v err=%v", ok, err)
		}
		ok, err = harness.Maintenance.UpdateMaintenanceStatus(ctx, window.ID, persistence.MaintenanceScheduled, persistence.MaintenanceActive, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("expected repeat transition to report false")
		}
	})
}
