// README: In-memory match store with the same pair-uniqueness guarantee as the SQL table.
package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nearmatch/internal/types"
)

type pairKey struct {
	lo, hi types.ID
}

type MemoryStore struct {
	mu      sync.Mutex
	records map[pairKey]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[pairKey]Record), now: time.Now}
}

func keyFor(a, b types.ID) pairKey {
	lo, hi := orderedPair(a, b)
	return pairKey{lo: lo, hi: hi}
}

func (m *MemoryStore) FindPair(_ context.Context, a, b types.ID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[keyFor(a, b)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStore) CreateMatch(_ context.Context, nm NewMatch) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyFor(nm.UserA, nm.UserB)
	if _, ok := m.records[k]; ok {
		return nil, ErrDuplicatePair
	}
	r := Record{
		ID:        types.ID(uuid.NewString()),
		UserA:     nm.UserA,
		UserB:     nm.UserB,
		Score:     nm.Score,
		Reasoning: nm.Reasoning,
		CreatedAt: m.now().UTC(),
	}
	if nm.Location != nil {
		loc := *nm.Location
		r.Location = &loc
	}
	m.records[k] = r
	return &r, nil
}

func (m *MemoryStore) ListForUser(_ context.Context, userID types.ID, since time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Record{}
	for _, r := range m.records {
		if (r.UserA == userID || r.UserB == userID) && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Len reports how many pairs are linked.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
