// README: In-memory profile store for local development and tests.
package profile

import (
	"context"
	"sync"
	"time"

	"nearmatch/internal/types"
)

type memUser struct {
	profile  Profile
	location *types.Coordinate
	lastSeen time.Time
	token    string
}

type MemoryStore struct {
	mu    sync.RWMutex
	users map[types.ID]*memUser
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[types.ID]*memUser)}
}

// Put creates or replaces a user's profile, keeping any known location.
func (m *MemoryStore) Put(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Interests = NormalizeInterests(p.Interests)
	if u, ok := m.users[p.UserID]; ok {
		u.profile = p
		return
	}
	m.users[p.UserID] = &memUser{profile: p}
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := copyProfile(u.profile)
	return &p, nil
}

func (m *MemoryStore) GetMany(_ context.Context, ids []types.ID) (map[types.ID]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[types.ID]Candidate, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u.candidate()
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateLocation(_ context.Context, id types.ID, c types.Coordinate, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.location = &c
	u.lastSeen = seenAt
	return nil
}

func (m *MemoryStore) Upsert(_ context.Context, p Profile) error {
	m.Put(p)
	return nil
}

func (m *MemoryStore) FindInBox(_ context.Context, box types.BoundingBox, exclude types.ID, activeSince time.Time) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Candidate{}
	for id, u := range m.users {
		if id == exclude || u.location == nil || u.lastSeen.Before(activeSince) {
			continue
		}
		if !box.Contains(*u.location) {
			continue
		}
		out = append(out, u.candidate())
	}
	return out, nil
}

func (m *MemoryStore) DeviceToken(_ context.Context, id types.ID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return "", ErrNotFound
	}
	return u.token, nil
}

func (m *MemoryStore) SetDeviceToken(_ context.Context, id types.ID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.token = token
	return nil
}

func (u *memUser) candidate() Candidate {
	c := Candidate{UserID: u.profile.UserID, Profile: copyProfile(u.profile), LastSeenAt: u.lastSeen}
	if u.location != nil {
		loc := *u.location
		c.Location = &loc
	}
	return c
}

func copyProfile(p Profile) Profile {
	p.Interests = append([]string(nil), p.Interests...)
	return p
}
