package geolocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ReplayLocator plays a polyline back as a stream of fixes, one point per
// interval. Permission is always granted.
type ReplayLocator struct {
	path     orb.LineString
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	watches map[WatchID]*replay
}

type replay struct {
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewReplayLocator(path orb.LineString, interval time.Duration) *ReplayLocator {
	if interval <= 0 {
		interval = time.Second
	}
	return &ReplayLocator{
		path:     path,
		interval: interval,
		now:      time.Now,
		watches:  make(map[WatchID]*replay),
	}
}

func (r *ReplayLocator) CheckPermissions(ctx context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}

func (r *ReplayLocator) RequestPermissions(ctx context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}

// CurrentPosition returns the first point of the path.
func (r *ReplayLocator) CurrentPosition(ctx context.Context, opts PositionOptions) (Sample, error) {
	if len(r.path) == 0 {
		return Sample{}, fmt.Errorf("%w: empty replay path", ErrPositionUnavailable)
	}
	return Sample{Position: r.path[0], Timestamp: r.now()}, nil
}

// WatchPosition emits every point of the path in order, then goes quiet
// until cleared.
func (r *ReplayLocator) WatchPosition(ctx context.Context, opts PositionOptions, cb Callback) (WatchID, error) {
	if cb == nil {
		return "", fmt.Errorf("watch callback is nil")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	rp := &replay{cancel: cancel, stopped: make(chan struct{})}
	id := WatchID(uuid.NewString())

	r.mu.Lock()
	r.watches[id] = rp
	r.mu.Unlock()

	go func() {
		defer close(rp.stopped)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for _, p := range r.path {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
			cb(Sample{Position: p, Timestamp: r.now()})
		}
		<-runCtx.Done()
	}()

	return id, nil
}

func (r *ReplayLocator) ClearWatch(ctx context.Context, id WatchID) error {
	r.mu.Lock()
	rp, ok := r.watches[id]
	delete(r.watches, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWatch, id)
	}
	rp.cancel()
	<-rp.stopped
	return nil
}

func (r *ReplayLocator) ActiveWatches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// Duration is how long a full playback takes.
func (r *ReplayLocator) Duration() time.Duration {
	return time.Duration(len(r.path)) * r.interval
}
