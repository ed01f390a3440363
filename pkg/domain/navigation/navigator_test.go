package navigation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandermap/navigator/pkg/domain/navigation"
	"github.com/wandermap/navigator/pkg/geolocation"
	"github.com/wandermap/navigator/pkg/testing/mocks"
)

type fixture struct {
	nav      *navigation.Navigator
	device   *geolocation.DeviceLocator
	surface  *mocks.RecordingSurface
	routes   *mocks.MockRouteProvider
	sink     *mocks.RecordingLocationSink
	notifier *mocks.RecordingNotifier
}

func testRoute() navigation.Route {
	points := make(orb.LineString, 0, 11)
	for i := 0; i <= 10; i++ {
		points = append(points, orb.Point{0, float64(i) * 0.001})
	}
	return navigation.Route{Points: points, DistanceMeters: 1113, DurationSeconds: 120}
}

func newFixture(t *testing.T, locator geolocation.Locator) *fixture {
	t.Helper()

	f := &fixture{
		surface:  &mocks.RecordingSurface{},
		routes:   &mocks.MockRouteProvider{},
		sink:     &mocks.RecordingLocationSink{},
		notifier: &mocks.RecordingNotifier{},
	}
	f.routes.RouteFunc = func(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
		return testRoute(), nil
	}

	if locator == nil {
		f.device = geolocation.NewDeviceLocator(nil)
		locator = f.device
	}

	nav, err := navigation.NewNavigator(navigation.Config{UserID: "user-1", Locale: "en"}, navigation.Dependencies{
		Locator:   locator,
		Surface:   f.surface,
		Routes:    f.routes,
		Locations: f.sink,
		Notifier:  f.notifier,
	})
	require.NoError(t, err)
	f.nav = nav

	t.Cleanup(func() { _ = nav.Close(context.Background()) })
	return f
}

func fix(lon, lat float64) geolocation.Sample {
	return geolocation.Sample{Position: orb.Point{lon, lat}, Timestamp: time.Now()}
}

// readyToNavigate locates the user at the origin and selects the end of the
// test route as destination.
func (f *fixture) readyToNavigate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.device.Push(fix(0, 0))
	require.NoError(t, f.nav.LocateUser(ctx))
	require.NoError(t, f.nav.SelectDestination(ctx, orb.Point{0, 0.01}))
}

func TestNewNavigator_RequiresCollaborators(t *testing.T) {
	_, err := navigation.NewNavigator(navigation.Config{}, navigation.Dependencies{})
	assert.Error(t, err)
}

func TestLocateUser(t *testing.T) {
	f := newFixture(t, nil)
	f.device.Push(fix(-55.9414, -15.2924))

	err := f.nav.LocateUser(context.Background())
	require.NoError(t, err)

	st := f.nav.State()
	require.NotNil(t, st.UserLocation)
	assert.Equal(t, orb.Point{-55.9414, -15.2924}, *st.UserLocation)
	assert.False(t, st.Locating)

	fly := f.surface.Ops("fly_to")
	require.Len(t, fly, 1)
	assert.Equal(t, 16.0, fly[0].Zoom)
	assert.Len(t, f.surface.Ops("user_marker"), 1)
	assert.Empty(t, f.notifier.All())
}

func TestLocateUser_Failures(t *testing.T) {
	tests := []struct {
		name      string
		locator   *mocks.MockLocator
		wantErr   error
		wantTitle string
	}{
		{
			name: "permission denied after request",
			locator: &mocks.MockLocator{
				CheckPermissionsFunc: func(ctx context.Context) (geolocation.PermissionState, error) {
					return geolocation.PermissionPrompt, nil
				},
				RequestPermissionsFunc: func(ctx context.Context) (geolocation.PermissionState, error) {
					return geolocation.PermissionDenied, nil
				},
			},
			wantErr:   navigation.ErrPermissionDenied,
			wantTitle: "Permissions required",
		},
		{
			name: "permission check fails",
			locator: &mocks.MockLocator{
				CheckPermissionsFunc: func(ctx context.Context) (geolocation.PermissionState, error) {
					return "", errors.New("plugin crashed")
				},
			},
			wantErr:   navigation.ErrPermissionCheck,
			wantTitle: "Error",
		},
		{
			name: "permission request fails",
			locator: &mocks.MockLocator{
				CheckPermissionsFunc: func(ctx context.Context) (geolocation.PermissionState, error) {
					return geolocation.PermissionPrompt, nil
				},
				RequestPermissionsFunc: func(ctx context.Context) (geolocation.PermissionState, error) {
					return "", errors.New("dialog dismissed")
				},
			},
			wantErr:   navigation.ErrPermissionCheck,
			wantTitle: "Error",
		},
		{
			name: "no fix",
			locator: &mocks.MockLocator{
				CurrentPositionFunc: func(ctx context.Context, opts geolocation.PositionOptions) (geolocation.Sample, error) {
					return geolocation.Sample{}, errors.New("gps off")
				},
			},
			wantErr:   navigation.ErrPositionUnavailable,
			wantTitle: "Location unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.locator)

			err := f.nav.LocateUser(context.Background())

			assert.ErrorIs(t, err, tt.wantErr)
			notes := f.notifier.All()
			require.Len(t, notes, 1)
			assert.Equal(t, tt.wantTitle, notes[0].Title)
			assert.Equal(t, navigation.VariantDestructive, notes[0].Variant)
			assert.Nil(t, f.nav.State().UserLocation)
			assert.Empty(t, f.surface.Calls())
		})
	}
}

func TestLocateUser_UsesHighAccuracy(t *testing.T) {
	var got geolocation.PositionOptions
	f := newFixture(t, &mocks.MockLocator{
		CurrentPositionFunc: func(ctx context.Context, opts geolocation.PositionOptions) (geolocation.Sample, error) {
			got = opts
			return fix(1, 1), nil
		},
	})

	require.NoError(t, f.nav.LocateUser(context.Background()))
	assert.True(t, got.EnableHighAccuracy)
}

func TestSelectDestination_RequiresLocation(t *testing.T) {
	f := newFixture(t, nil)

	err := f.nav.SelectDestination(context.Background(), orb.Point{1, 1})

	assert.ErrorIs(t, err, navigation.ErrNoUserLocation)
	assert.Empty(t, f.surface.Calls())
	assert.Nil(t, f.nav.State().Destination)
}

func TestSelectDestination_SetsRouteAndDisplay(t *testing.T) {
	f := newFixture(t, nil)
	f.readyToNavigate(t)

	st := f.nav.State()
	require.NotNil(t, st.Destination)
	assert.Equal(t, orb.Point{0, 0.01}, *st.Destination)
	assert.Len(t, st.Route, 11)
	assert.Equal(t, navigation.Display{Distance: "1.1 km", Duration: "2 min"}, st.Display)

	assert.Len(t, f.surface.Ops("destination_marker"), 1)
	routes := f.surface.Ops("route")
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].Route, 11)
}

func TestSelectDestination_FailureLeavesRouteUntouched(t *testing.T) {
	f := newFixture(t, nil)
	f.readyToNavigate(t)
	before := f.nav.State()

	f.routes.RouteFunc = func(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
		return navigation.Route{}, errors.New("directions down")
	}
	f.surface.Reset()

	err := f.nav.SelectDestination(context.Background(), orb.Point{0.02, 0.02})
	require.Error(t, err)

	after := f.nav.State()
	assert.Equal(t, before.Route, after.Route)
	assert.Equal(t, before.Display, after.Display)
	assert.Empty(t, f.surface.Ops("route"))
	assert.Empty(t, f.surface.Ops("display"))

	notes := f.notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, "Route unavailable", notes[0].Title)
}

func TestSelectDestination_DiscardsStaleResponse(t *testing.T) {
	t.Run("newer destination", func(t *testing.T) {
		f := newFixture(t, nil)
		f.device.Push(fix(0, 0))
		require.NoError(t, f.nav.LocateUser(context.Background()))

		release := make(chan struct{})
		var calls sync.WaitGroup
		calls.Add(1)
		first := true
		var mu sync.Mutex
		f.routes.RouteFunc = func(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
			mu.Lock()
			slow := first
			first = false
			mu.Unlock()
			if slow {
				calls.Done()
				<-release
				return navigation.Route{Points: orb.LineString{from, to}, DistanceMeters: 5000}, nil
			}
			return testRoute(), nil
		}

		errCh := make(chan error, 1)
		go func() { errCh <- f.nav.SelectDestination(context.Background(), orb.Point{0.05, 0.05}) }()
		calls.Wait()

		require.NoError(t, f.nav.SelectDestination(context.Background(), orb.Point{0, 0.01}))
		close(release)

		assert.ErrorIs(t, <-errCh, navigation.ErrRouteSuperseded)
		st := f.nav.State()
		assert.Equal(t, orb.Point{0, 0.01}, *st.Destination)
		assert.Len(t, st.Route, 11)
		assert.Equal(t, "1.1 km", st.Display.Distance)
	})

	t.Run("stopped while in flight", func(t *testing.T) {
		f := newFixture(t, nil)
		f.device.Push(fix(0, 0))
		require.NoError(t, f.nav.LocateUser(context.Background()))

		started := make(chan struct{})
		release := make(chan struct{})
		f.routes.RouteFunc = func(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
			close(started)
			<-release
			return testRoute(), nil
		}

		errCh := make(chan error, 1)
		go func() { errCh <- f.nav.SelectDestination(context.Background(), orb.Point{0, 0.01}) }()
		<-started

		require.NoError(t, f.nav.StopNavigation(context.Background()))
		f.surface.Reset()
		close(release)

		assert.ErrorIs(t, <-errCh, navigation.ErrRouteSuperseded)
		st := f.nav.State()
		assert.Nil(t, st.Destination)
		assert.Empty(t, st.Route)
		assert.True(t, st.Display.Empty())
		assert.Empty(t, f.surface.Calls())
	})
}

func TestStartNavigation_RequiresDestination(t *testing.T) {
	f := newFixture(t, nil)

	err := f.nav.StartNavigation(context.Background())

	assert.ErrorIs(t, err, navigation.ErrNoDestination)
	assert.Equal(t, 0, f.device.ActiveWatches())
}

func TestStartNavigation_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.readyToNavigate(t)
	ctx := context.Background()

	require.NoError(t, f.nav.StartNavigation(ctx))
	require.NoError(t, f.nav.StartNavigation(ctx))

	assert.Equal(t, 1, f.device.ActiveWatches())
	assert.True(t, f.nav.State().Navigating)
}

func TestNavigation_TracksPositions(t *testing.T) {
	f := newFixture(t, nil)
	f.readyToNavigate(t)
	ctx := context.Background()
	require.NoError(t, f.nav.StartNavigation(ctx))
	f.surface.Reset()

	f.device.Push(fix(0, 0))
	f.device.Push(fix(0, 0.001))

	require.Eventually(t, func() bool { return f.sink.Count() == 2 }, time.Second, 5*time.Millisecond)

	st := f.nav.State()
	assert.Len(t, st.Route, 9)
	assert.Equal(t, "0.89 km", st.Display.Distance)
	assert.Equal(t, "2 min", st.Display.Duration)
	assert.Equal(t, orb.Point{0, 0.001}, *st.UserLocation)

	eases := f.surface.Ops("ease_to")
	require.Len(t, eases, 2)
	assert.Equal(t, time.Second, eases[1].Duration)
	assert.Equal(t, orb.Point{0, 0.001}, eases[1].Point)

	markers := f.surface.Ops("user_marker")
	require.Len(t, markers, 2)
	assert.InDelta(t, 0, markers[1].Bearing, 1e-9)

	routes := f.surface.Ops("route")
	require.Len(t, routes, 2)
	assert.LessOrEqual(t, len(routes[1].Route), len(routes[0].Route))
}

func TestNavigation_StopEndsTracking(t *testing.T) {
	f := newFixture(t, nil)
	f.readyToNavigate(t)
	ctx := context.Background()
	require.NoError(t, f.nav.StartNavigation(ctx))

	f.device.Push(fix(0, 0.001))
	require.Eventually(t, func() bool { return f.sink.Count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.nav.StopNavigation(ctx))
	assert.Equal(t, 0, f.device.ActiveWatches())

	st := f.nav.State()
	assert.False(t, st.Navigating)
	assert.False(t, st.WatchActive)
	assert.Nil(t, st.Destination)
	assert.Empty(t, st.Route)
	assert.True(t, st.Display.Empty())

	assert.NotEmpty(t, f.surface.Ops("route_clear"))
	assert.NotEmpty(t, f.surface.Ops("destination_clear"))

	markersBefore := len(f.surface.Ops("user_marker"))
	f.device.Push(fix(0, 0.002))
	assert.False(t, f.nav.HandlePosition(ctx, fix(0, 0.003)))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, markersBefore, len(f.surface.Ops("user_marker")))
	assert.Equal(t, 1, f.sink.Count())
}

func TestNavigation_StopWithoutStartIsHarmless(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.nav.StopNavigation(context.Background()))
	assert.Equal(t, 0, f.device.ActiveWatches())
}

func TestNavigation_RepeatedSampleKeepsRoute(t *testing.T) {
	f := newFixture(t, nil)
	f.readyToNavigate(t)
	ctx := context.Background()
	require.NoError(t, f.nav.StartNavigation(ctx))

	require.True(t, f.nav.HandlePosition(ctx, fix(0, 0.003)))
	first := f.nav.State().Route
	require.True(t, f.nav.HandlePosition(ctx, fix(0, 0.003)))

	assert.Equal(t, first, f.nav.State().Route)
}

func TestNavigation_SinkFailureDoesNotStopTracking(t *testing.T) {
	f := newFixture(t, nil)
	f.sink.Err = errors.New("rtdb unavailable")
	f.readyToNavigate(t)
	ctx := context.Background()
	require.NoError(t, f.nav.StartNavigation(ctx))

	assert.True(t, f.nav.HandlePosition(ctx, fix(0, 0.002)))
	assert.True(t, f.nav.HandlePosition(ctx, fix(0, 0.004)))
	assert.Equal(t, 2, f.sink.Count())
	assert.Empty(t, f.notifier.All())
}

func TestNavigation_JournalSeesLifecycle(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	device := geolocation.NewDeviceLocator(nil)
	nav, err := navigation.NewNavigator(navigation.Config{UserID: "u"}, navigation.Dependencies{
		Locator: device,
		Surface: &mocks.RecordingSurface{},
		Routes: navigation.RouteProviderFunc(func(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
			return testRoute(), nil
		}),
		Journal: &mocks.MockJournal{
			RouteCreatedFunc: func(ctx context.Context, userID string, origin, destination orb.Point, route navigation.Route) error {
				record("route")
				return nil
			},
			NavigationStartedFunc: func(ctx context.Context, userID string, destination orb.Point, route navigation.Route) error {
				record("start")
				return nil
			},
			PositionTrackedFunc: func(ctx context.Context, userID string, s geolocation.Sample) error {
				record("position")
				return nil
			},
			NavigationStoppedFunc: func(ctx context.Context, userID string) error {
				record("stop")
				return nil
			},
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	device.Push(fix(0, 0))
	require.NoError(t, nav.LocateUser(ctx))
	require.NoError(t, nav.SelectDestination(ctx, orb.Point{0, 0.01}))
	require.NoError(t, nav.StartNavigation(ctx))
	nav.HandlePosition(ctx, fix(0, 0.001))
	require.NoError(t, nav.StopNavigation(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"route", "start", "position", "stop"}, events)
}
