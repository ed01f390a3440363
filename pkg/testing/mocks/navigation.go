package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/domain/navigation"
	"github.com/wandermap/navigator/pkg/geolocation"
)

// SurfaceCall is one recorded map command.
type SurfaceCall struct {
	Op       string
	Point    orb.Point
	Zoom     float64
	Bearing  float64
	Duration time.Duration
	Route    orb.LineString
	Display  navigation.Display
}

// RecordingSurface records every map command it receives.
type RecordingSurface struct {
	mu    sync.Mutex
	calls []SurfaceCall
}

func (s *RecordingSurface) record(c SurfaceCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *RecordingSurface) FlyTo(center orb.Point, zoom float64) {
	s.record(SurfaceCall{Op: "fly_to", Point: center, Zoom: zoom})
}
func (s *RecordingSurface) EaseTo(center orb.Point, d time.Duration) {
	s.record(SurfaceCall{Op: "ease_to", Point: center, Duration: d})
}
func (s *RecordingSurface) SetUserMarker(p orb.Point, bearing float64) {
	s.record(SurfaceCall{Op: "user_marker", Point: p, Bearing: bearing})
}
func (s *RecordingSurface) SetDestinationMarker(p orb.Point) {
	s.record(SurfaceCall{Op: "destination_marker", Point: p})
}
func (s *RecordingSurface) RemoveDestinationMarker() {
	s.record(SurfaceCall{Op: "destination_clear"})
}
func (s *RecordingSurface) SetRoute(points orb.LineString) {
	s.record(SurfaceCall{Op: "route", Route: append(orb.LineString(nil), points...)})
}
func (s *RecordingSurface) ClearRoute() {
	s.record(SurfaceCall{Op: "route_clear"})
}
func (s *RecordingSurface) ShowDisplay(d navigation.Display) {
	s.record(SurfaceCall{Op: "display", Display: d})
}

func (s *RecordingSurface) Calls() []SurfaceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SurfaceCall(nil), s.calls...)
}

// Ops returns the recorded calls with the given op, oldest first.
func (s *RecordingSurface) Ops(op string) []SurfaceCall {
	var out []SurfaceCall
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *RecordingSurface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// --- Mock RouteProvider ---
type MockRouteProvider struct {
	RouteFunc func(ctx context.Context, from, to orb.Point) (navigation.Route, error)
}

func (m *MockRouteProvider) Route(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, from, to)
	}
	return navigation.Route{Points: orb.LineString{from, to}}, nil
}

// --- Recording sinks ---

type RecordingLocationSink struct {
	mu      sync.Mutex
	Samples []geolocation.Sample
	Err     error
}

func (r *RecordingLocationSink) PublishLocation(ctx context.Context, userID string, s geolocation.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Samples = append(r.Samples, s)
	return r.Err
}

func (r *RecordingLocationSink) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Samples)
}

type RecordingNotifier struct {
	mu            sync.Mutex
	Notifications []navigation.Notification
}

func (r *RecordingNotifier) Notify(ctx context.Context, userID string, n navigation.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications = append(r.Notifications, n)
	return nil
}

func (r *RecordingNotifier) All() []navigation.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]navigation.Notification(nil), r.Notifications...)
}

// --- Mock Journal ---
type MockJournal struct {
	RouteCreatedFunc      func(ctx context.Context, userID string, origin, destination orb.Point, route navigation.Route) error
	NavigationStartedFunc func(ctx context.Context, userID string, destination orb.Point, route navigation.Route) error
	PositionTrackedFunc   func(ctx context.Context, userID string, s geolocation.Sample) error
	NavigationStoppedFunc func(ctx context.Context, userID string) error
}

func (m *MockJournal) RouteCreated(ctx context.Context, userID string, origin, destination orb.Point, route navigation.Route) error {
	if m.RouteCreatedFunc != nil {
		return m.RouteCreatedFunc(ctx, userID, origin, destination, route)
	}
	return nil
}
func (m *MockJournal) NavigationStarted(ctx context.Context, userID string, destination orb.Point, route navigation.Route) error {
	if m.NavigationStartedFunc != nil {
		return m.NavigationStartedFunc(ctx, userID, destination, route)
	}
	return nil
}
func (m *MockJournal) PositionTracked(ctx context.Context, userID string, s geolocation.Sample) error {
	if m.PositionTrackedFunc != nil {
		return m.PositionTrackedFunc(ctx, userID, s)
	}
	return nil
}
func (m *MockJournal) NavigationStopped(ctx context.Context, userID string) error {
	if m.NavigationStoppedFunc != nil {
		return m.NavigationStoppedFunc(ctx, userID)
	}
	return nil
}

// --- Mock Locator ---
type MockLocator struct {
	CheckPermissionsFunc   func(ctx context.Context) (geolocation.PermissionState, error)
	RequestPermissionsFunc func(ctx context.Context) (geolocation.PermissionState, error)
	CurrentPositionFunc    func(ctx context.Context, opts geolocation.PositionOptions) (geolocation.Sample, error)
	WatchPositionFunc      func(ctx context.Context, opts geolocation.PositionOptions, cb geolocation.Callback) (geolocation.WatchID, error)
	ClearWatchFunc         func(ctx context.Context, id geolocation.WatchID) error
	ActiveWatchesFunc      func() int
}

func (m *MockLocator) CheckPermissions(ctx context.Context) (geolocation.PermissionState, error) {
	if m.CheckPermissionsFunc != nil {
		return m.CheckPermissionsFunc(ctx)
	}
	return geolocation.PermissionGranted, nil
}
func (m *MockLocator) RequestPermissions(ctx context.Context) (geolocation.PermissionState, error) {
	if m.RequestPermissionsFunc != nil {
		return m.RequestPermissionsFunc(ctx)
	}
	return geolocation.PermissionGranted, nil
}
func (m *MockLocator) CurrentPosition(ctx context.Context, opts geolocation.PositionOptions) (geolocation.Sample, error) {
	if m.CurrentPositionFunc != nil {
		return m.CurrentPositionFunc(ctx, opts)
	}
	return geolocation.Sample{}, geolocation.ErrPositionUnavailable
}
func (m *MockLocator) WatchPosition(ctx context.Context, opts geolocation.PositionOptions, cb geolocation.Callback) (geolocation.WatchID, error) {
	if m.WatchPositionFunc != nil {
		return m.WatchPositionFunc(ctx, opts, cb)
	}
	return "watch-1", nil
}
func (m *MockLocator) ClearWatch(ctx context.Context, id geolocation.WatchID) error {
	if m.ClearWatchFunc != nil {
		return m.ClearWatchFunc(ctx, id)
	}
	return nil
}
func (m *MockLocator) ActiveWatches() int {
	if m.ActiveWatchesFunc != nil {
		return m.ActiveWatchesFunc()
	}
	return 0
}
