package notify

import "sync"

const DefaultNotifiedCapacity = 100

// NotifiedSet remembers dedup keys that already produced a notification.
// Once full, the oldest keys are evicted in insertion order.
type NotifiedSet struct {
	mu       sync.Mutex
	capacity int
	order    []string
	keys     map[string]struct{}
}

func NewNotifiedSet(capacity int) *NotifiedSet {
	if capacity <= 0 {
		capacity = DefaultNotifiedCapacity
	}
	return &NotifiedSet{capacity: capacity, keys: make(map[string]struct{}, capacity)}
}

func (s *NotifiedSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// Add records key, evicting the oldest keys first so the set never exceeds
// its capacity. The key being added is never the one evicted.
func (s *NotifiedSet) Add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return
	}
	for len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.keys, oldest)
	}
	s.order = append(s.order, key)
	s.keys[key] = struct{}{}
}

func (s *NotifiedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
