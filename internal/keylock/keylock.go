// Package keylock provides per-key mutual exclusion.
package keylock

import "sync"

// Set hands out one mutex per key. Entries are dropped once no goroutine
// holds or waits for them, so the set does not grow with the key space.
type Set struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty Set.
func New() *Set {
	return &Set{locks: make(map[string]*entry)}
}

// Lock blocks until key is held and returns its unlock function.
func (s *Set) Lock(key string) (unlock func()) {
	s.mu.Lock()
	e, ok := s.locks[key]
	if !ok {
		e = &entry{}
		s.locks[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		s.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// held reports how many keys are currently held or awaited.
func (s *Set) held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
