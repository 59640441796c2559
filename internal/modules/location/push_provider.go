// README: Location provider fed by device uploads over the HTTP API.
package location

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"nearmatch/internal/types"
)

const subscriberBuffer = 16

type pushSub struct {
	ch      chan types.Coordinate
	minDist float64
	last    *types.Coordinate
}

// PushProvider adapts device-reported fixes to the Provider contract. The
// device reports its service and permission state; an uploaded fix implies
// the service is on and access was granted.
type PushProvider struct {
	mu      sync.Mutex
	enabled bool
	perm    PermissionState
	subs    map[int]*pushSub
	nextID  int
	log     *zap.Logger
}

func NewPushProvider(log *zap.Logger) *PushProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &PushProvider{
		enabled: true,
		perm:    PermissionUnknown,
		subs:    make(map[int]*pushSub),
		log:     log,
	}
}

func (p *PushProvider) IsEnabled(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *PushProvider) CheckPermission(context.Context) PermissionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perm
}

// RequestPermission cannot prompt a remote device; it reports the last state
// the device sent.
func (p *PushProvider) RequestPermission(ctx context.Context) PermissionState {
	return p.CheckPermission(ctx)
}

func (p *PushProvider) SetStatus(enabled bool, perm PermissionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	p.perm = perm
}

func (p *PushProvider) Stream(ctx context.Context, minDistanceMeters float64) (<-chan types.Coordinate, error) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	sub := &pushSub{ch: make(chan types.Coordinate, subscriberBuffer), minDist: minDistanceMeters}
	p.subs[id] = sub
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.subs, id)
		close(sub.ch)
		p.mu.Unlock()
	}()
	return sub.ch, nil
}

// Publish fans c out to every subscriber whose last delivered sample is at
// least its minimum distance away. It returns how many subscribers received it.
func (p *PushProvider) Publish(c types.Coordinate) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
	if !p.perm.Granted() {
		p.perm = PermissionWhileInUse
	}

	delivered := 0
	for _, sub := range p.subs {
		if sub.last != nil && DistanceMeters(*sub.last, c) < sub.minDist {
			continue
		}
		select {
		case sub.ch <- c:
			last := c
			sub.last = &last
			delivered++
		default:
			p.log.Warn("dropping location sample, subscriber is behind",
				zap.Float64("lat", c.Lat), zap.Float64("lng", c.Lng))
		}
	}
	return delivered
}

// PushHub holds one PushProvider per user.
type PushHub struct {
	mu        sync.Mutex
	providers map[types.ID]*PushProvider
	log       *zap.Logger
}

func NewPushHub(log *zap.Logger) *PushHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &PushHub{providers: make(map[types.ID]*PushProvider), log: log}
}

func (h *PushHub) For(userID types.ID) *PushProvider {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.providers[userID]
	if !ok {
		p = NewPushProvider(h.log.With(zap.String("user_id", string(userID))))
		h.providers[userID] = p
	}
	return p
}
