// README: TrackingSession supervises sampling, scans and reconciliation for one user.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nearmatch/internal/config"
	"nearmatch/internal/modules/location"
	"nearmatch/internal/modules/matching"
	"nearmatch/internal/modules/notify"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

var (
	ErrAlreadyActive = errors.New("tracking session already active")
	ErrInvalidInput  = errors.New("invalid tracking input")
	// ErrStopped is returned by Start when Stop won the race against it.
	ErrStopped = errors.New("tracking session stopped while starting")
)

type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateActive   State = "active"
)

const eventBuffer = 32

type EventKind string

const (
	EventCandidatesFound EventKind = "candidates_found"
	EventMatchFound      EventKind = "match_found"
)

// Event reports scan progress to whoever renders the session.
type Event struct {
	Kind      EventKind          `json:"kind"`
	At        time.Time          `json:"at"`
	Origin    types.Coordinate   `json:"origin"`
	Nearby    []location.Nearby  `json:"nearby,omitempty"`
	Match     *matching.Record   `json:"match,omitempty"`
	Candidate *profile.Candidate `json:"candidate,omitempty"`
	Notified  bool               `json:"notified,omitempty"`
}

type CandidateFinder interface {
	FindCandidates(ctx context.Context, origin types.Coordinate, exclude types.ID, activeWithin time.Duration) ([]profile.Candidate, error)
}

type MatchEvaluator interface {
	Evaluate(ctx context.Context, self profile.Profile, selfID types.ID, candidate profile.Candidate, origin *types.Coordinate) (matching.Outcome, error)
}

type LocationWriter interface {
	UpdateLocation(ctx context.Context, id types.ID, c types.Coordinate, seenAt time.Time) error
}

// Deps wires a Session to its collaborators.
type Deps struct {
	Provider  location.Provider
	Finder    CandidateFinder
	Evaluator MatchEvaluator
	Locations LocationWriter
	Notify    notify.Deps
	Config    config.TrackingConfig
	Log       *zap.Logger
}

// run is everything owned by one Start..Stop cycle. Results produced for a
// run that is no longer current are dropped.
type run struct {
	epoch      uint64
	userID     types.ID
	profile    profile.Profile
	ctx        context.Context
	cancel     context.CancelFunc
	sub        *location.Subscription
	dispatcher *notify.Dispatcher
	events     chan Event
	timerDone  chan struct{}
	lastOrigin *types.Coordinate
	scans      sync.WaitGroup
}

type Session struct {
	deps    Deps
	sampler *location.Sampler
	log     *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
	epoch uint64
	cur   *run
}

func NewSession(deps Deps) *Session {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	deps.Config = withDefaults(deps.Config)
	return &Session{
		deps:    deps,
		sampler: location.NewSampler(deps.Provider, log),
		log:     log,
		now:     time.Now,
		state:   StateStopped,
	}
}

func withDefaults(c config.TrackingConfig) config.TrackingConfig {
	if c.ThresholdFeet <= 0 {
		c.ThresholdFeet = location.DefaultThresholdFeet
	}
	if c.ActiveWindowSeconds <= 0 {
		c.ActiveWindowSeconds = 3600
	}
	if c.ReconcileSeconds <= 0 {
		c.ReconcileSeconds = 120
	}
	if c.LookbackSeconds <= 0 {
		c.LookbackSeconds = 24 * 3600
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events is the stream for the current run. It is closed by Stop; when the
// session is stopped an already closed channel is returned.
func (s *Session) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	return s.cur.events
}

// Start begins tracking userID. Permission and service failures leave the
// session stopped and are returned as location.ErrPermissionDenied or
// location.ErrServiceUnavailable.
func (s *Session) Start(ctx context.Context, userID types.ID, p profile.Profile) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	if p.UserID != "" && p.UserID != userID {
		return fmt.Errorf("%w: profile belongs to %s", ErrInvalidInput, p.UserID)
	}
	p.UserID = userID

	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	s.epoch++
	r := &run{
		epoch:   s.epoch,
		userID:  userID,
		profile: p,
		events:  make(chan Event, eventBuffer),
	}
	r.ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cur = r
	s.state = StateStarting
	s.mu.Unlock()

	log := s.log.With(zap.String("user_id", string(userID)), zap.Uint64("epoch", r.epoch))
	sub, err := s.sampler.Start(ctx, s.deps.Config.MinDistanceMeters, func(c types.Coordinate) {
		s.onSample(r, c)
	})

	s.mu.Lock()
	if s.cur != r {
		s.mu.Unlock()
		s.sampler.Stop(sub)
		if err != nil {
			return err
		}
		return ErrStopped
	}
	if err != nil {
		s.cur = nil
		s.state = StateStopped
		close(r.events)
		s.mu.Unlock()
		r.cancel()
		log.Warn("tracking start failed", zap.Error(err))
		return err
	}
	r.sub = sub
	r.dispatcher = notify.NewDispatcher(userID, s.deps.Notify)
	r.timerDone = make(chan struct{})
	s.state = StateActive
	go s.runTimer(r)
	if r.lastOrigin != nil {
		s.launchScan(r, *r.lastOrigin)
	}
	s.mu.Unlock()

	log.Info("tracking started")
	return nil
}

// Stop ends the current run. In-flight work is cancelled and its results
// are discarded together with the NotifiedSet. Safe to call repeatedly.
func (s *Session) Stop() {
	s.mu.Lock()
	r := s.cur
	if r == nil {
		s.mu.Unlock()
		return
	}
	s.cur = nil
	s.state = StateStopped
	close(r.events)
	sub, timerDone := r.sub, r.timerDone
	s.mu.Unlock()

	r.cancel()
	s.sampler.Stop(sub)
	if timerDone != nil {
		<-timerDone
	}
	r.scans.Wait()
	s.log.Info("tracking stopped", zap.String("user_id", string(r.userID)), zap.Uint64("epoch", r.epoch))
}

func (s *Session) current(r *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur == r
}

func (s *Session) onSample(r *run, c types.Coordinate) {
	s.mu.Lock()
	if s.cur != r {
		s.mu.Unlock()
		return
	}
	origin := c
	r.lastOrigin = &origin
	active := s.state == StateActive
	s.mu.Unlock()
	if !active {
		// Start launches the first scan from lastOrigin once active.
		return
	}

	if err := s.deps.Locations.UpdateLocation(r.ctx, r.userID, c, s.now()); err != nil {
		s.log.Warn("self location update failed", zap.String("user_id", string(r.userID)), zap.Error(err))
	}
	s.mu.Lock()
	if s.cur == r {
		s.launchScan(r, c)
	}
	s.mu.Unlock()
}

// launchScan must be called with s.mu held and r current.
func (s *Session) launchScan(r *run, origin types.Coordinate) {
	r.scans.Add(1)
	go func() {
		defer r.scans.Done()
		s.scan(r, origin)
	}()
}

func (s *Session) scan(r *run, origin types.Coordinate) {
	cfg := s.deps.Config
	log := s.log.With(zap.String("user_id", string(r.userID)))

	candidates, err := s.deps.Finder.FindCandidates(r.ctx, origin, r.userID, cfg.ActiveWindow())
	if err != nil {
		if s.current(r) {
			log.Warn("candidate lookup failed", zap.Error(err))
		}
		return
	}
	nearby := location.Filter(origin, candidates, cfg.ThresholdFeet)
	log.Debug("scan", zap.Int("candidates", len(candidates)), zap.Int("nearby", len(nearby)))
	s.emit(r, Event{Kind: EventCandidatesFound, At: s.now(), Origin: origin, Nearby: nearby})

	g := new(errgroup.Group)
	g.SetLimit(cfg.Concurrency)
	for _, n := range nearby {
		g.Go(func() error {
			s.evaluate(r, origin, n)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Session) evaluate(r *run, origin types.Coordinate, n location.Nearby) {
	if !s.current(r) {
		return
	}
	out, err := s.deps.Evaluator.Evaluate(r.ctx, r.profile, r.userID, n.Candidate, &origin)
	if err != nil {
		if s.current(r) {
			s.log.Warn("candidate evaluation failed",
				zap.String("user_id", string(r.userID)),
				zap.String("candidate_id", string(n.Candidate.UserID)),
				zap.Error(err),
			)
		}
		return
	}
	if out.Kind != matching.OutcomeNewMatch || !s.current(r) {
		return
	}

	notified := r.dispatcher.NotifyIfNew(r.ctx, *out.Record, n.Candidate.Profile.Name)
	cand := n.Candidate
	s.emit(r, Event{
		Kind:      EventMatchFound,
		At:        s.now(),
		Origin:    origin,
		Match:     out.Record,
		Candidate: &cand,
		Notified:  notified,
	})
}

func (s *Session) emit(r *run, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != r {
		return
	}
	select {
	case r.events <- ev:
	default:
		s.log.Warn("dropping session event, consumer is behind",
			zap.String("user_id", string(r.userID)),
			zap.String("kind", string(ev.Kind)),
		)
	}
}

func (s *Session) runTimer(r *run) {
	defer close(r.timerDone)
	ticker := time.NewTicker(s.deps.Config.ReconcileInterval())
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			s.tick(r)
		}
	}
}

// tick reconciles notifications and re-scans from the last known position,
// so matches are found even when the device stops moving.
func (s *Session) tick(r *run) {
	n, err := r.dispatcher.Reconcile(r.ctx, r.userID, s.deps.Config.Lookback())
	if err != nil && s.current(r) {
		s.log.Warn("reconcile failed", zap.String("user_id", string(r.userID)), zap.Error(err))
	}
	if n > 0 {
		s.log.Debug("reconciled", zap.String("user_id", string(r.userID)), zap.Int("sent", n))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == r && r.lastOrigin != nil {
		s.launchScan(r, *r.lastOrigin)
	}
}
