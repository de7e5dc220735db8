package audit

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity is how many recent events a MemorySink keeps when
// no capacity is given.
const DefaultMemoryCapacity = 256

// MemorySink keeps the most recent events in a fixed-size ring; older events
// are overwritten. Used when no broker is configured and in tests.
type MemorySink struct {
	mu    sync.RWMutex
	ring  []Event
	start int
	size  int
}

// NewMemorySink creates a sink retaining at most capacity events.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{ring: make([]Event, capacity)}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size < len(s.ring) {
		s.ring[(s.start+s.size)%len(s.ring)] = event
		s.size++
		return nil
	}
	s.ring[s.start] = event
	s.start = (s.start + 1) % len(s.ring)
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, s.size)
	for i := 0; i < s.size; i++ {
		out = append(out, s.ring[(s.start+i)%len(s.ring)])
	}
	return out
}
