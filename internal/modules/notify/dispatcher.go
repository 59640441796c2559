// README: Per-session notification dedup plus periodic reconciliation against the match store.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"nearmatch/internal/modules/matching"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

type MatchLister interface {
	ListForUser(ctx context.Context, userID types.ID, since time.Time) ([]matching.Record, error)
}

type ProfileReader interface {
	Get(ctx context.Context, id types.ID) (*profile.Profile, error)
}

// PlaceResolver names the spot where a match happened.
type PlaceResolver interface {
	PlaceName(ctx context.Context, c types.Coordinate) (string, error)
}

// Deps are the collaborators shared by every dispatcher in the process.
type Deps struct {
	Sink     Sink
	Matches  MatchLister
	Profiles ProfileReader
	Places   PlaceResolver // optional
	Capacity int
	Log      *zap.Logger
}

// Dispatcher sends match alerts to one user at most once per dedup key for
// its lifetime. A fresh Dispatcher starts with an empty NotifiedSet.
type Dispatcher struct {
	userID   types.ID
	deps     Deps
	notified *NotifiedSet
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewDispatcher(userID types.ID, deps Deps) *Dispatcher {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		userID:   userID,
		deps:     deps,
		notified: NewNotifiedSet(deps.Capacity),
		log:      log.With(zap.String("user_id", string(userID))),
		now:      time.Now,
		pending:  make(map[string]struct{}),
	}
}

// DedupKey is the match ID, or name:score when the record has none.
func DedupKey(rec matching.Record, otherName string) string {
	if rec.ID != "" {
		return string(rec.ID)
	}
	return fmt.Sprintf("%s:%.2f", otherName, rec.Score)
}

// NotifyIfNew sends an alert for rec unless its key was already notified or
// is being sent by a concurrent call. The key is only marked after the sink
// accepts the alert, so a failed send is retried on a later pass.
func (d *Dispatcher) NotifyIfNew(ctx context.Context, rec matching.Record, otherName string) bool {
	key := DedupKey(rec, otherName)

	d.mu.Lock()
	if _, busy := d.pending[key]; busy || d.notified.Contains(key) {
		d.mu.Unlock()
		return false
	}
	d.pending[key] = struct{}{}
	d.mu.Unlock()

	err := d.deps.Sink.Send(ctx, d.buildAlert(ctx, rec, otherName, key))

	d.mu.Lock()
	delete(d.pending, key)
	if err == nil {
		d.notified.Add(key)
	}
	d.mu.Unlock()

	if err != nil {
		d.log.Warn("notification not sent", zap.String("dedup_key", key), zap.Error(err))
		return false
	}
	return true
}

// Reconcile notifies userID about matches created within the lookback that
// this dispatcher has not announced yet, e.g. ones written by the
// counterpart's scan. It returns the number of alerts sent.
func (d *Dispatcher) Reconcile(ctx context.Context, userID types.ID, within time.Duration) (int, error) {
	records, err := d.deps.Matches.ListForUser(ctx, userID, d.now().Add(-within))
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}

	sent := 0
	for _, rec := range records {
		if rec.ID != "" && d.notified.Contains(string(rec.ID)) {
			continue
		}
		other, err := d.deps.Profiles.Get(ctx, rec.Other(userID))
		if err != nil {
			d.log.Warn("reconcile: counterpart lookup failed",
				zap.String("match_id", string(rec.ID)),
				zap.Error(err),
			)
			continue
		}
		if d.NotifyIfNew(ctx, rec, other.Name) {
			sent++
		}
	}
	if sent > 0 {
		d.log.Info("reconcile sent notifications", zap.Int("count", sent))
	}
	return sent, nil
}

func (d *Dispatcher) buildAlert(ctx context.Context, rec matching.Record, otherName, key string) Alert {
	name := otherName
	if name == "" {
		name = "someone nearby"
	}
	body := fmt.Sprintf("You and %s look like a great match (%.0f%% compatible).", name, rec.Score*100)
	if place := d.placeName(ctx, rec); place != "" {
		body += " Say hi near " + place + "."
	}
	return Alert{
		Recipient: d.userID,
		Title:     "New match nearby!",
		Body:      body,
		Payload: map[string]string{
			"dedup_key":     key,
			"match_id":      string(rec.ID),
			"other_user_id": string(rec.Other(d.userID)),
			"score":         strconv.FormatFloat(rec.Score, 'f', 2, 64),
		},
	}
}

func (d *Dispatcher) placeName(ctx context.Context, rec matching.Record) string {
	if d.deps.Places == nil || rec.Location == nil {
		return ""
	}
	name, err := d.deps.Places.PlaceName(ctx, *rec.Location)
	if err != nil {
		d.log.Debug("place lookup failed", zap.Error(err))
		return ""
	}
	return name
}
