package location

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearmatch/internal/types"
)

type fakeProvider struct {
	enabled   bool
	perm      PermissionState
	afterAsk  PermissionState
	asked     int
	streamErr error
	ch        chan types.Coordinate
}

func (f *fakeProvider) IsEnabled(context.Context) bool                  { return f.enabled }
func (f *fakeProvider) CheckPermission(context.Context) PermissionState { return f.perm }
func (f *fakeProvider) RequestPermission(context.Context) PermissionState {
	f.asked++
	return f.afterAsk
}
func (f *fakeProvider) Stream(ctx context.Context, _ float64) (<-chan types.Coordinate, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.ch, nil
}

func TestSamplerStart_ServiceDisabled(t *testing.T) {
	s := NewSampler(&fakeProvider{enabled: false}, nil)
	sub, err := s.Start(context.Background(), 5, func(types.Coordinate) {})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Nil(t, sub)
}

func TestSamplerStart_PermissionDeniedAfterRequest(t *testing.T) {
	p := &fakeProvider{enabled: true, perm: PermissionDenied, afterAsk: PermissionDenied}
	s := NewSampler(p, nil)
	sub, err := s.Start(context.Background(), 5, func(types.Coordinate) {})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Nil(t, sub)
	assert.Equal(t, 1, p.asked)
}

func TestSamplerStart_DeniedForeverIsNotAskedAgain(t *testing.T) {
	p := &fakeProvider{enabled: true, perm: PermissionDeniedPerm}
	_, err := NewSampler(p, nil).Start(context.Background(), 5, func(types.Coordinate) {})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, p.asked)
}

func TestSamplerStart_DeliversInOrderUntilStopped(t *testing.T) {
	p := &fakeProvider{enabled: true, perm: PermissionDenied, afterAsk: PermissionAlways, ch: make(chan types.Coordinate, 3)}
	s := NewSampler(p, nil)

	var mu sync.Mutex
	var got []float64
	sub, err := s.Start(context.Background(), 5, func(c types.Coordinate) {
		mu.Lock()
		got = append(got, c.Lat)
		mu.Unlock()
	})
	require.NoError(t, err)

	p.ch <- types.Coordinate{Lat: 1}
	p.ch <- types.Coordinate{Lat: 2}
	p.ch <- types.Coordinate{Lat: 3}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)

	s.Stop(sub)
	s.Stop(sub)
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestPushProvider_AppliesMinimumDistance(t *testing.T) {
	p := NewPushProvider(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.Stream(ctx, 10)
	require.NoError(t, err)

	origin := types.Coordinate{Lat: 40, Lng: -74}
	assert.Equal(t, 1, p.Publish(origin))
	// ~1 m away: below the 10 m interval.
	assert.Equal(t, 0, p.Publish(types.Coordinate{Lat: 40.00001, Lng: -74}))
	// ~111 m away.
	assert.Equal(t, 1, p.Publish(types.Coordinate{Lat: 40.001, Lng: -74}))

	assert.Equal(t, origin, <-ch)
	assert.InDelta(t, 40.001, (<-ch).Lat, 1e-9)

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestPushProvider_UploadImpliesPermission(t *testing.T) {
	p := NewPushProvider(nil)
	ctx := context.Background()
	assert.Equal(t, PermissionUnknown, p.CheckPermission(ctx))

	p.SetStatus(false, PermissionDenied)
	assert.False(t, p.IsEnabled(ctx))

	p.Publish(types.Coordinate{Lat: 1, Lng: 1})
	assert.True(t, p.IsEnabled(ctx))
	assert.True(t, p.CheckPermission(ctx).Granted())
}

func TestPushHub_ReturnsSameProviderPerUser(t *testing.T) {
	h := NewPushHub(nil)
	assert.Same(t, h.For("a"), h.For("a"))
	assert.NotSame(t, h.For("a"), h.For("b"))
}
