package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearmatch/internal/modules/matching"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

func TestNotifiedSetEvictsOldestFirst(t *testing.T) {
	s := NewNotifiedSet(3)
	for _, k := range []string{"a", "b", "c"} {
		s.Add(k)
	}
	s.Add("a")
	assert.Equal(t, 3, s.Len())

	s.Add("d")
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.True(t, s.Contains("d"))
}

func TestNotifiedSetCapacityOneKeepsNewest(t *testing.T) {
	s := NewNotifiedSet(1)
	s.Add("a")
	s.Add("b")
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("a"))
	assert.Equal(t, DefaultNotifiedCapacity, NewNotifiedSet(0).capacity)
}

func TestDedupKeyFallback(t *testing.T) {
	assert.Equal(t, "m1", DedupKey(matching.Record{ID: "m1", Score: 0.5}, "Ana"))
	assert.Equal(t, "Ana:0.83", DedupKey(matching.Record{Score: 0.8349}, "Ana"))
}

func TestNotifyIfNewOncePerKey(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher("alice", Deps{Sink: sink})
	rec := matching.Record{ID: "m1", UserA: "alice", UserB: "bob", Score: 0.8}

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- d.NotifyIfNew(context.Background(), rec, "Bob")
		}()
	}
	wg.Wait()
	close(results)

	sent := 0
	for ok := range results {
		if ok {
			sent++
		}
	}
	assert.Equal(t, 1, sent)
	require.Len(t, sink.alerts(), 1)

	a := sink.alerts()[0]
	assert.Equal(t, types.ID("alice"), a.Recipient)
	assert.Contains(t, a.Body, "Bob")
	assert.Contains(t, a.Body, "80%")
	assert.Equal(t, "m1", a.Payload["dedup_key"])
	assert.Equal(t, "bob", a.Payload["other_user_id"])
}

func TestNotifyIfNewFailedSendIsRetried(t *testing.T) {
	sink := &recordingSink{failures: 1}
	d := NewDispatcher("alice", Deps{Sink: sink})
	rec := matching.Record{ID: "m1", UserA: "alice", UserB: "bob", Score: 0.8}

	assert.False(t, d.NotifyIfNew(context.Background(), rec, "Bob"))
	assert.True(t, d.NotifyIfNew(context.Background(), rec, "Bob"))
	assert.False(t, d.NotifyIfNew(context.Background(), rec, "Bob"))
	assert.Len(t, sink.alerts(), 1)
}

func TestNotifyIfNewAppendsPlace(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher("alice", Deps{Sink: sink, Places: stubPlaces{name: "Bryant Park"}})
	rec := matching.Record{ID: "m1", UserA: "bob", UserB: "alice", Score: 0.9, Location: &types.Coordinate{Lat: 40.75, Lng: -73.98}}

	require.True(t, d.NotifyIfNew(context.Background(), rec, "Bob"))
	assert.Contains(t, sink.alerts()[0].Body, "Bryant Park")

	d = NewDispatcher("alice", Deps{Sink: sink, Places: stubPlaces{err: errors.New("quota")}})
	require.True(t, d.NotifyIfNew(context.Background(), rec, "Bob"))
	assert.NotContains(t, sink.alerts()[1].Body, "near")
}

func TestReconcileNotifiesStoreCreatedMatchesOnce(t *testing.T) {
	ctx := context.Background()
	matches := matching.NewMemoryStore()
	profiles := profile.NewMemoryStore()
	for _, id := range []types.ID{"alice", "bob", "carol", "dan"} {
		profiles.Put(profile.Profile{UserID: id, Name: "name-" + string(id)})
	}

	inline, err := matches.CreateMatch(ctx, matching.NewMatch{UserA: "alice", UserB: "bob", Score: 0.9})
	require.NoError(t, err)
	_, err = matches.CreateMatch(ctx, matching.NewMatch{UserA: "carol", UserB: "alice", Score: 0.7})
	require.NoError(t, err)
	_, err = matches.CreateMatch(ctx, matching.NewMatch{UserA: "dan", UserB: "alice", Score: 0.6})
	require.NoError(t, err)

	sink := &recordingSink{}
	d := NewDispatcher("alice", Deps{Sink: sink, Matches: matches, Profiles: profiles})
	require.True(t, d.NotifyIfNew(ctx, *inline, "name-bob"))

	n, err := d.Reconcile(ctx, "alice", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = d.Reconcile(ctx, "alice", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	bodies := []string{}
	for _, a := range sink.alerts() {
		bodies = append(bodies, a.Body)
	}
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[1]+bodies[2], "name-carol")
	assert.Contains(t, bodies[1]+bodies[2], "name-dan")
}

func TestReconcileSkipsUnknownCounterpart(t *testing.T) {
	ctx := context.Background()
	matches := matching.NewMemoryStore()
	_, err := matches.CreateMatch(ctx, matching.NewMatch{UserA: "alice", UserB: "ghost", Score: 0.9})
	require.NoError(t, err)

	sink := &recordingSink{}
	d := NewDispatcher("alice", Deps{Sink: sink, Matches: matches, Profiles: profile.NewMemoryStore()})
	n, err := d.Reconcile(ctx, "alice", time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.alerts())
}

func TestReconcileStoreFailure(t *testing.T) {
	d := NewDispatcher("alice", Deps{Sink: &recordingSink{}, Matches: failingLister{}, Profiles: profile.NewMemoryStore()})
	_, err := d.Reconcile(context.Background(), "alice", time.Hour)
	assert.ErrorIs(t, err, types.ErrStoreFailure)
}

func TestFCMSink(t *testing.T) {
	ctx := context.Background()
	profiles := profile.NewMemoryStore()
	profiles.Put(profile.Profile{UserID: "alice"})
	profiles.Put(profile.Profile{UserID: "bob"})
	require.NoError(t, profiles.SetDeviceToken(ctx, "alice", "tok-alice"))

	msgr := &fakeMessenger{}
	sink := NewFCMSink(msgr, profiles)

	require.NoError(t, sink.Send(ctx, Alert{Recipient: "alice", Title: "t", Body: "b", Payload: map[string]string{"match_id": "m1"}}))
	require.Len(t, msgr.sent, 1)
	assert.Equal(t, "tok-alice", msgr.sent[0].Token)
	assert.Equal(t, "b", msgr.sent[0].Notification.Body)
	assert.Equal(t, "m1", msgr.sent[0].Data["match_id"])

	assert.ErrorIs(t, sink.Send(ctx, Alert{Recipient: "bob"}), ErrNoDeviceToken)
	assert.ErrorIs(t, sink.Send(ctx, Alert{Recipient: "nobody"}), profile.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type recordingSink struct {
	mu       sync.Mutex
	sent     []Alert
	failures int
}

func (s *recordingSink) Send(_ context.Context, a Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink rejected")
	}
	s.sent = append(s.sent, a)
	return nil
}

func (s *recordingSink) alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alert(nil), s.sent...)
}

type stubPlaces struct {
	name string
	err  error
}

func (p stubPlaces) PlaceName(context.Context, types.Coordinate) (string, error) {
	return p.name, p.err
}

type failingLister struct{}

func (failingLister) ListForUser(context.Context, types.ID, time.Time) ([]matching.Record, error) {
	return nil, fmt.Errorf("list: %w", types.ErrStoreFailure)
}

type fakeMessenger struct {
	sent []*messaging.Message
}

func (m *fakeMessenger) Send(_ context.Context, msg *messaging.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return "projects/test/messages/1", nil
}
