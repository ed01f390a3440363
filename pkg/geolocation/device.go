package geolocation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeviceLocator is fed by the device: it reports its permission state and
// pushes fixes, and the locator fans them out to one-shot requests and
// watches.
type DeviceLocator struct {
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	permission PermissionState
	permWait   chan struct{}
	last       *received
	waiters    []chan Sample
	watches    map[WatchID]*watch
}

type received struct {
	sample Sample
	at     time.Time
}

func NewDeviceLocator(logger *slog.Logger) *DeviceLocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeviceLocator{
		logger:     logger.With("component", "geolocation"),
		now:        time.Now,
		permission: PermissionPrompt,
		permWait:   make(chan struct{}),
		watches:    make(map[WatchID]*watch),
	}
}

// SetPermission records the state the device reports.
func (d *DeviceLocator) SetPermission(state PermissionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setPermissionLocked(state)
}

func (d *DeviceLocator) setPermissionLocked(state PermissionState) {
	if d.permission == state {
		return
	}
	d.logger.Info("Location permission changed", "from", d.permission, "to", state)
	d.permission = state
	close(d.permWait)
	d.permWait = make(chan struct{})
}

// Push delivers a fix from the device. A device that sends fixes has
// evidently been granted access, so a pending prompt resolves to granted.
func (d *DeviceLocator) Push(s Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.permission == PermissionPrompt {
		d.setPermissionLocked(PermissionGranted)
	}

	d.last = &received{sample: s, at: d.now()}
	for _, ch := range d.waiters {
		ch <- s
	}
	d.waiters = nil

	for _, w := range d.watches {
		w.enqueue(s)
	}
}

func (d *DeviceLocator) CheckPermissions(ctx context.Context) (PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permission, nil
}

// RequestPermissions waits for the device to answer a pending prompt. An
// already decided state is returned immediately.
func (d *DeviceLocator) RequestPermissions(ctx context.Context) (PermissionState, error) {
	d.mu.Lock()
	state, changed := d.permission, d.permWait
	d.mu.Unlock()

	if state != PermissionPrompt {
		return state, nil
	}

	timer := time.NewTimer(DefaultTimeout)
	defer timer.Stop()

	select {
	case <-changed:
		return d.CheckPermissions(ctx)
	case <-timer.C:
		return PermissionPrompt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *DeviceLocator) CurrentPosition(ctx context.Context, opts PositionOptions) (Sample, error) {
	opts = opts.withDefaults()

	d.mu.Lock()
	if d.permission == PermissionDenied {
		d.mu.Unlock()
		return Sample{}, ErrPermissionDenied
	}
	if d.last != nil && d.now().Sub(d.last.at) <= opts.MaximumAge {
		s := d.last.sample
		d.mu.Unlock()
		return s, nil
	}
	ch := make(chan Sample, 1)
	d.waiters = append(d.waiters, ch)
	d.mu.Unlock()

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case s := <-ch:
		return s, nil
	case <-timer.C:
		d.dropWaiter(ch)
		return Sample{}, ErrTimeout
	case <-ctx.Done():
		d.dropWaiter(ch)
		return Sample{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, ctx.Err())
	}
}

func (d *DeviceLocator) dropWaiter(ch chan Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.waiters {
		if w == ch {
			d.waiters = append(d.waiters[:i], d.waiters[i+1:]...)
			return
		}
	}
}

func (d *DeviceLocator) WatchPosition(ctx context.Context, opts PositionOptions, cb Callback) (WatchID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if cb == nil {
		return "", fmt.Errorf("watch callback is nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.permission == PermissionDenied {
		return "", ErrPermissionDenied
	}

	id := WatchID(uuid.NewString())
	w := newWatch(cb)
	d.watches[id] = w
	go w.run()

	d.logger.Info("Position watch started", "watch_id", id, "high_accuracy", opts.EnableHighAccuracy)
	return id, nil
}

func (d *DeviceLocator) ClearWatch(ctx context.Context, id WatchID) error {
	d.mu.Lock()
	w, ok := d.watches[id]
	delete(d.watches, id)
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWatch, id)
	}

	w.stop()
	d.logger.Info("Position watch cleared", "watch_id", id)
	return nil
}

func (d *DeviceLocator) ActiveWatches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.watches)
}

// watch delivers queued fixes to its callback on a dedicated goroutine.
type watch struct {
	cb Callback

	mu      sync.Mutex
	queue   []Sample
	signal  chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

func newWatch(cb Callback) *watch {
	return &watch{
		cb:      cb,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (w *watch) enqueue(s Sample) {
	w.mu.Lock()
	w.queue = append(w.queue, s)
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *watch) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.done:
			return
		case <-w.signal:
		}

		for {
			w.mu.Lock()
			if len(w.queue) == 0 {
				w.mu.Unlock()
				break
			}
			s := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()

			select {
			case <-w.done:
				return
			default:
			}
			w.cb(s)
		}
	}
}

func (w *watch) stop() {
	close(w.done)
	<-w.stopped
}
