// README: GeoSampler owns the device location subscription for one session.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"nearmatch/internal/types"
)

var (
	ErrPermissionDenied   = errors.New("location permission denied")
	ErrServiceUnavailable = errors.New("location service unavailable")
)

type PermissionState string

const (
	PermissionUnknown    PermissionState = "unknown"
	PermissionDenied     PermissionState = "denied"
	PermissionDeniedPerm PermissionState = "denied_forever"
	PermissionWhileInUse PermissionState = "while_in_use"
	PermissionAlways     PermissionState = "always"
)

func (p PermissionState) Granted() bool {
	return p == PermissionWhileInUse || p == PermissionAlways
}

// Provider is the device location source. Stream must close its channel once
// ctx is cancelled. The provider applies the minimum spatial interval itself.
type Provider interface {
	IsEnabled(ctx context.Context) bool
	CheckPermission(ctx context.Context) PermissionState
	RequestPermission(ctx context.Context) PermissionState
	Stream(ctx context.Context, minDistanceMeters float64) (<-chan types.Coordinate, error)
}

type Sampler struct {
	provider Provider
	log      *zap.Logger
}

func NewSampler(provider Provider, log *zap.Logger) *Sampler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sampler{provider: provider, log: log}
}

// Subscription is the handle returned by Start.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start checks the service and permission, then delivers samples to onSample
// in provider order on a dedicated goroutine. Failures are reported once and
// leave nothing subscribed.
func (s *Sampler) Start(ctx context.Context, minDistanceMeters float64, onSample func(types.Coordinate)) (*Subscription, error) {
	if onSample == nil {
		return nil, fmt.Errorf("start sampler: nil sample callback")
	}
	if !s.provider.IsEnabled(ctx) {
		return nil, ErrServiceUnavailable
	}

	perm := s.provider.CheckPermission(ctx)
	if perm == PermissionDenied || perm == PermissionUnknown {
		perm = s.provider.RequestPermission(ctx)
	}
	if !perm.Granted() {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, perm)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	samples, err := s.provider.Stream(streamCtx, minDistanceMeters)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			select {
			case <-streamCtx.Done():
				return
			case c, ok := <-samples:
				if !ok {
					s.log.Debug("location stream closed")
					return
				}
				onSample(c)
			}
		}
	}()
	return sub, nil
}

// Stop cancels the subscription and waits for the delivery goroutine to exit.
// It is safe to call more than once and with a nil handle.
func (s *Sampler) Stop(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.once.Do(sub.cancel)
	<-sub.done
}
