package application

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/room-booking/internal/interval"
	"github.com/example/room-booking/internal/persistence"
)

func TestErrorKind(t *testing.T) {
	t.Parallel()

	conflict := &ConflictError{RoomID: "room-101"}
	violation := &InvariantViolationError{RoomID: "room-101", Detail: "overlap"}
	validation := &ValidationError{}
	validation.add("time", "start must be before end")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found", err: ErrNotFound, want: "not_found"},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", ErrNotFound), want: "not_found"},
		{name: "no room available", err: ErrNoRoomAvailable, want: "no_room_available"},
		{name: "transient", err: ErrTransient, want: "transient"},
		{name: "sweep in progress", err: ErrSweepInProgress, want: "sweep_in_progress"},
		{name: "conflict", err: conflict, want: "conflict"},
		{name: "invariant violation", err: violation, want: "invariant_violation"},
		{name: "validation", err: validation, want: "validation"},
		{name: "unexpected", err: errors.New("boom"), want: "unexpected"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMapStoreError(t *testing.T) {
	t.Parallel()

	if err := mapStoreError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	if err := mapStoreError(persistence.ErrNotFound); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var vErr *ValidationError
	if err := mapStoreError(persistence.ErrConstraintViolation); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for constraint violation, got %v", err)
	}
	if err := mapStoreError(persistence.ErrForeignKeyViolation); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for foreign key violation, got %v", err)
	}

	plain := errors.New("disk on fire")
	if err := mapStoreError(plain); !errors.Is(err, plain) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestConflictErrorMessageCarriesInterval(t *testing.T) {
	t.Parallel()

	err := &ConflictError{
		RoomID: "room-101",
		Conflicting: interval.Interval{
			Start: time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
		},
	}

	want := "room room-101 is reserved from 2024-03-14T10:00:00Z to 2024-03-14T12:00:00Z"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
