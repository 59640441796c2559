// README: Engine hosts one tracking session per user inside the API process.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"nearmatch/internal/config"
	"nearmatch/internal/modules/location"
	"nearmatch/internal/modules/matching"
	"nearmatch/internal/modules/notify"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

type ProfileStore interface {
	Get(ctx context.Context, id types.ID) (*profile.Profile, error)
	GetMany(ctx context.Context, ids []types.ID) (map[types.ID]profile.Candidate, error)
	UpdateLocation(ctx context.Context, id types.ID, c types.Coordinate, seenAt time.Time) error
}

type EngineDeps struct {
	Profiles  ProfileStore
	Matches   notify.MatchLister
	Finder    CandidateFinder
	Evaluator MatchEvaluator
	Notify    notify.Deps
	Config    config.TrackingConfig
	Log       *zap.Logger
}

// MatchView is a match with both sides resolved for display.
type MatchView struct {
	Match matching.Record  `json:"match"`
	Self  *profile.Profile `json:"self"`
	Other *profile.Profile `json:"other,omitempty"`
}

type Engine struct {
	deps EngineDeps
	hub  *location.PushHub
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[types.ID]*Session
}

func NewEngine(deps EngineDeps) *Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	deps.Log = log
	return &Engine{
		deps:     deps,
		hub:      location.NewPushHub(log),
		log:      log,
		sessions: make(map[types.ID]*Session),
	}
}

func (e *Engine) session(userID types.ID) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	if !ok {
		s = NewSession(Deps{
			Provider:  e.hub.For(userID),
			Finder:    e.deps.Finder,
			Evaluator: e.deps.Evaluator,
			Locations: e.deps.Profiles,
			Notify:    e.deps.Notify,
			Config:    e.deps.Config,
			Log:       e.log,
		})
		e.sessions[userID] = s
	}
	return s
}

// StartTracking starts the user's session with override, or with the stored
// profile when override is nil.
func (e *Engine) StartTracking(ctx context.Context, userID types.ID, override *profile.Profile) (<-chan Event, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	var p profile.Profile
	if override != nil {
		p = *override
	} else {
		stored, err := e.deps.Profiles.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		p = *stored
	}

	s := e.session(userID)
	if err := s.Start(ctx, userID, p); err != nil {
		return nil, err
	}
	return s.Events(), nil
}

func (e *Engine) StopTracking(userID types.ID) {
	e.mu.Lock()
	s, ok := e.sessions[userID]
	e.mu.Unlock()
	if ok {
		s.Stop()
	}
}

// Events returns the running session's stream, or a closed channel.
func (e *Engine) Events(userID types.ID) <-chan Event {
	return e.session(userID).Events()
}

func (e *Engine) State(userID types.ID) State {
	e.mu.Lock()
	s, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return StateStopped
	}
	return s.State()
}

// Provider is the location feed the user's device uploads into.
func (e *Engine) Provider(userID types.ID) *location.PushProvider {
	return e.hub.For(userID)
}

// RecordLocation feeds an uploaded fix to the user's session. Users without
// a running session still get their stored position refreshed so others can
// discover them.
func (e *Engine) RecordLocation(ctx context.Context, userID types.ID, c types.Coordinate) error {
	if e.hub.For(userID).Publish(c) > 0 {
		return nil
	}
	return e.deps.Profiles.UpdateLocation(ctx, userID, c, time.Now())
}

// CurrentMatches lists every match of userID, newest first, with the
// counterpart profiles resolved. Counterparts that no longer exist are
// returned without a profile.
func (e *Engine) CurrentMatches(ctx context.Context, userID types.ID) ([]MatchView, error) {
	self, err := e.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := e.deps.Matches.ListForUser(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}

	ids := make([]types.ID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Other(userID))
	}
	others, err := e.deps.Profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MatchView, 0, len(records))
	for _, r := range records {
		v := MatchView{Match: r, Self: self}
		if c, ok := others[r.Other(userID)]; ok {
			p := c.Profile
			v.Other = &p
		}
		out = append(out, v)
	}
	return out, nil
}

// Shutdown stops every running session.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()
	for _, s := range sessions {
		s.Stop()
	}
}
