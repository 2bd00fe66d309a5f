package application

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// memStore is an in-memory implementation of the store interfaces with the
// same ordering and conditional-write semantics as the SQLite repositories.
type memStore struct {
	mu       sync.Mutex
	rooms    map[string]Room
	bookings map[string]Booking
	windows  map[string]MaintenanceWindow
	roles    map[string]Role

	roleErr    error
	replaceErr error

	// sweepEntryHook runs at the top of ListMaintenanceDueToStart, letting
	// tests hold a sweep inside its first storage call.
	sweepEntryHook func()
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    make(map[string]Room),
		bookings: make(map[string]Booking),
		windows:  make(map[string]MaintenanceWindow),
		roles:    make(map[string]Role),
	}
}

func (m *memStore) addRoom(room Room) {
	m.mu.Lock()
	m.rooms[room.ID] = room
	m.mu.Unlock()
}

func (m *memStore) addBooking(booking Booking) {
	m.mu.Lock()
	m.bookings[booking.ID] = booking
	m.mu.Unlock()
}

func (m *memStore) addWindow(window MaintenanceWindow) {
	m.mu.Lock()
	m.windows[window.ID] = window
	m.mu.Unlock()
}

func (m *memStore) setRole(userID string, role Role) {
	m.mu.Lock()
	m.roles[userID] = role
	m.mu.Unlock()
}

func (m *memStore) booking(id string) (Booking, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	return b, ok
}

func (m *memStore) window(id string) (MaintenanceWindow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	return w, ok
}

// ----------------------------- RoomCatalog -----------------------------

func (m *memStore) GetRoom(ctx context.Context, id string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memStore) FindCandidateRooms(ctx context.Context, filter CandidateFilter) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Room
	for _, room := range m.rooms {
		if room.ID == filter.ExcludeRoomID {
			continue
		}
		if room.Capacity < filter.MinCapacity {
			continue
		}
		if filter.RequireMultimedia && !room.HasMultimedia {
			continue
		}
		if filter.RequireProjector && !room.HasProjector {
			continue
		}
		if room.Restricted && !filter.IncludeRestricted {
			continue
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ----------------------------- BookingStore -----------------------------

func (m *memStore) GetBooking(ctx context.Context, id string) (Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (m *memStore) InsertBooking(ctx context.Context, booking Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bookings[booking.ID]; exists {
		return persistence.ErrDuplicate
	}
	m.bookings[booking.ID] = booking
	return nil
}

func (m *memStore) ListActiveBookings(ctx context.Context, roomID string, from, to time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.RoomID != roomID || b.Status.IsTerminal() {
			continue
		}
		if !b.End.After(from) || !b.Start.Before(to) {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

func (m *memStore) ReplaceBooking(ctx context.Context, oldID string, replacement Booking) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[oldID]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.bookings, oldID)
	m.bookings[replacement.ID] = replacement
	return nil
}

func (m *memStore) UpdateBookingStatus(ctx context.Context, id string, expected, next BookingStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.Status != expected {
		return false, nil
	}
	booking.Status = next
	booking.UpdatedAt = at
	m.bookings[id] = booking
	return true, nil
}

func (m *memStore) SetCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok || booking.Status != BookingApproved {
		return false, nil
	}
	booking.Status = BookingCheckedIn
	booking.CheckedIn = true
	booking.UpdatedAt = at
	m.bookings[id] = booking
	return true, nil
}

func (m *memStore) ListBookingsDueForBreach(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.Status == BookingApproved && !b.CheckedIn && !b.Start.After(cutoff) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (m *memStore) ListBookingsDueForCompletion(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if (b.Status == BookingApproved || b.Status == BookingCheckedIn) && !b.End.After(cutoff) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

// --------------------------- MaintenanceStore ---------------------------

func (m *memStore) GetMaintenance(ctx context.Context, id string) (MaintenanceWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window, ok := m.windows[id]
	if !ok {
		return MaintenanceWindow{}, persistence.ErrNotFound
	}
	return window, nil
}

func (m *memStore) InsertMaintenance(ctx context.Context, window MaintenanceWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.windows[window.ID]; exists {
		return persistence.ErrDuplicate
	}
	m.windows[window.ID] = window
	return nil
}

func (m *memStore) ListActiveMaintenance(ctx context.Context, roomID string, from, to time.Time) ([]MaintenanceWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MaintenanceWindow
	for _, w := range m.windows {
		if w.RoomID != roomID || w.Status == MaintenanceCompleted {
			continue
		}
		if !w.End.After(from) || !w.Start.Before(to) {
			continue
		}
		out = append(out, w)
	}
	sortWindows(out)
	return out, nil
}

func (m *memStore) ListMaintenanceDueToStart(ctx context.Context, cutoff time.Time) ([]MaintenanceWindow, error) {
	if m.sweepEntryHook != nil {
		m.sweepEntryHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MaintenanceWindow
	for _, w := range m.windows {
		if w.Status == MaintenanceScheduled && !w.Start.After(cutoff) {
			out = append(out, w)
		}
	}
	sortWindows(out)
	return out, nil
}

func (m *memStore) ListMaintenanceDueToFinish(ctx context.Context, cutoff time.Time) ([]MaintenanceWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MaintenanceWindow
	for _, w := range m.windows {
		if w.Status == MaintenanceActive && !w.End.After(cutoff) {
			out = append(out, w)
		}
	}
	sortWindows(out)
	return out, nil
}

func (m *memStore) UpdateMaintenanceStatus(ctx context.Context, id string, expected, next MaintenanceStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window, ok := m.windows[id]
	if !ok || window.Status != expected {
		return false, nil
	}
	window.Status = next
	window.UpdatedAt = at
	m.windows[id] = window
	return true, nil
}

// ----------------------------- RoleResolver -----------------------------

func (m *memStore) GetUserRole(ctx context.Context, userID string) (Role, error) {
	if m.roleErr != nil {
		return "", m.roleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if role, ok := m.roles[userID]; ok {
		return role, nil
	}
	return RoleStudent, nil
}

func sortBookings(bookings []Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].Start.Before(bookings[j].Start)
		}
		return bookings[i].ID < bookings[j].ID
	})
}

func sortWindows(windows []MaintenanceWindow) {
	sort.Slice(windows, func(i, j int) bool {
		if !windows[i].Start.Equal(windows[j].Start) {
			return windows[i].Start.Before(windows[j].Start)
		}
		return windows[i].ID < windows[j].ID
	})
}

func mustUTC(t *testing.T, hour int) time.Time {
	t.Helper()
	return time.Date(2024, 3, 14, hour, 0, 0, 0, time.UTC)
}
