package application

import "sync"

// roomLockSet provides per-room mutual exclusion for check-then-act
// sequences. Creates and reassignments on the same room serialize on the
// room's lock; unrelated rooms never contend.
type roomLockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLockSet() *roomLockSet {
	return &roomLockSet{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the given room, creating it on first use, and
// returns the release function. Locks are never evicted: the set grows with
// the number of distinct rooms, which is small and bounded by the catalog.
func (s *roomLockSet) lock(roomID string) func() {
	s.mu.Lock()
	m, ok := s.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[roomID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
