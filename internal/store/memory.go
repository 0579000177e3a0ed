package store

import "sync"

// MemoryStore implements Store with in-process bounded lists. It mirrors
// the SQLite backend's contract for cache-only deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	pics map[string][]string
	cap  int
}

// NewMemory creates an empty memory store with the given per-channel cap.
func NewMemory(cap int) *MemoryStore {
	return &MemoryStore{pics: make(map[string][]string), cap: cap}
}

// Push appends a pic and evicts the oldest entries past the cap.
func (s *MemoryStore) Push(channel, pic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.pics[channel], pic)
	if len(list) > s.cap {
		list = list[len(list)-s.cap:]
	}
	s.pics[channel] = list
	return nil
}

// Range returns a copy of the cached pics for a channel, oldest first.
func (s *MemoryStore) Range(channel string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.pics[channel]
	cp := make([]string, len(list))
	copy(cp, list)
	return cp, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
