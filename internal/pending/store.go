// Package pending holds the most recent reply seen for each OSC address.
//
// Each address has a single slot. A new arrival overwrites whatever is
// there: no queueing, no history.
package pending

import "sync"

// Store is a last-write-wins map from address to reply arguments.
type Store struct {
	mu      sync.Mutex
	entries map[string][]any
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string][]any)}
}

// Put overwrites the slot for address with a copy of args.
func (s *Store) Put(address string, args []any) {
	cp := append([]any(nil), args...)
	s.mu.Lock()
	s.entries[address] = cp
	s.mu.Unlock()
}

// TakeIfPresent returns and removes the value for address.
func (s *Store) TakeIfPresent(address string) ([]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[address]
	if ok {
		delete(s.entries, address)
	}
	return v, ok
}

// Peek returns the value for address without removing it.
func (s *Store) Peek(address string) ([]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[address]
	if !ok {
		return nil, false
	}
	return append([]any(nil), v...), true
}

// Clear drops any value held for address.
func (s *Store) Clear(address string) {
	s.mu.Lock()
	delete(s.entries, address)
	s.mu.Unlock()
}

// Reset drops every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	s.entries = make(map[string][]any)
	s.mu.Unlock()
}

// Len returns the number of addresses currently holding a value.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
