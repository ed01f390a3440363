package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/domain/geo"
	"github.com/wandermap/navigator/pkg/geolocation"
)

const (
	DefaultLocateZoom   = 16.0
	DefaultEaseDuration = 1000 * time.Millisecond
)

var (
	notePermissionsRequired = Notification{
		Title:       "Permissions required",
		Description: "Enable location in settings.",
		Variant:     VariantDestructive,
	}
	notePermissionCheckFailed = Notification{
		Title:       "Error",
		Description: "Could not verify location permissions.",
		Variant:     VariantDestructive,
	}
	noteLocationUnavailable = Notification{
		Title:       "Location unavailable",
		Description: "Enable GPS and grant location permission.",
		Variant:     VariantDestructive,
	}
	noteRouteUnavailable = Notification{
		Title:       "Route unavailable",
		Description: "Could not calculate a route to the destination.",
		Variant:     VariantDestructive,
	}
)

type Config struct {
	UserID           string
	LocateZoom       float64
	EaseDuration     time.Duration
	TrimRadiusMeters float64
	Locale           string
	// Position is used for locates and the navigation watch. High accuracy
	// is always requested.
	Position geolocation.PositionOptions
}

func (c Config) withDefaults() Config {
	if c.LocateZoom <= 0 {
		c.LocateZoom = DefaultLocateZoom
	}
	if c.EaseDuration <= 0 {
		c.EaseDuration = DefaultEaseDuration
	}
	if c.TrimRadiusMeters <= 0 {
		c.TrimRadiusMeters = geo.DefaultTrimRadiusMeters
	}
	if c.Position.MaximumAge <= 0 {
		c.Position.MaximumAge = geolocation.DefaultMaximumAge
	}
	if c.Position.Timeout <= 0 {
		c.Position.Timeout = geolocation.DefaultTimeout
	}
	c.Position.EnableHighAccuracy = true
	return c
}

// Dependencies are the collaborators of a Navigator. Locations, Notifier,
// Journal and ReportError are optional.
type Dependencies struct {
	Locator   geolocation.Locator
	Surface   MapSurface
	Routes    RouteProvider
	Locations LocationSink
	Notifier  Notifier
	Journal   Journal
	Logger    *slog.Logger

	ReportError func(err error, context map[string]interface{})
}

// Navigator drives one user's map. Every mutation of its state and of the
// map surface happens under mu; calls that leave the process (routing,
// realtime writes, notifications, the journal) happen outside it.
type Navigator struct {
	cfg    Config
	deps   Dependencies
	format *geo.Formatter
	logger *slog.Logger

	mu           sync.Mutex
	userLocation *orb.Point
	destination  *orb.Point
	route        *Route
	display      Display
	bearing      float64
	locating     bool
	navigating   bool
	watchID      geolocation.WatchID
	tracker      *Tracker

	// generation changes whenever a pending route response must be
	// discarded: a new destination or a stop.
	generation uint64
	// watchSeq identifies the watch whose fixes are currently accepted.
	watchSeq uint64
}

func NewNavigator(cfg Config, deps Dependencies) (*Navigator, error) {
	if deps.Locator == nil {
		return nil, errors.New("navigator requires a locator")
	}
	if deps.Surface == nil {
		return nil, errors.New("navigator requires a map surface")
	}
	if deps.Routes == nil {
		return nil, errors.New("navigator requires a route provider")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg = cfg.withDefaults()
	return &Navigator{
		cfg:    cfg,
		deps:   deps,
		format: geo.NewFormatter(cfg.Locale),
		logger: logger.With("component", "navigator", "user_id", cfg.UserID),
	}, nil
}

// LocateUser acquires a single high-accuracy fix, moves the user marker
// there and flies the camera to it.
func (n *Navigator) LocateUser(ctx context.Context) error {
	n.mu.Lock()
	if n.locating {
		n.mu.Unlock()
		return ErrLocateInProgress
	}
	n.locating = true
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.locating = false
		n.mu.Unlock()
	}()

	if err := n.ensurePermission(ctx); err != nil {
		return err
	}

	s, err := n.deps.Locator.CurrentPosition(ctx, n.cfg.Position)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			n.fail(ctx, notePermissionsRequired, err)
			return err
		}
		n.fail(ctx, noteLocationUnavailable, err)
		if !errors.Is(err, ErrPositionUnavailable) {
			err = fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
		}
		return fmt.Errorf("locate user: %w", err)
	}
	if !geo.Valid(s.Position) {
		err := fmt.Errorf("%w: invalid fix %v", ErrPositionUnavailable, s.Position)
		n.fail(ctx, noteLocationUnavailable, err)
		return err
	}

	n.mu.Lock()
	p := s.Position
	n.userLocation = &p
	n.bearing = 0
	if n.tracker != nil {
		n.tracker.Seed(p)
	}
	n.deps.Surface.SetUserMarker(p, 0)
	n.deps.Surface.FlyTo(p, n.cfg.LocateZoom)
	n.mu.Unlock()

	n.logger.Info("User located", "longitude", p.Lon(), "latitude", p.Lat())
	return nil
}

func (n *Navigator) ensurePermission(ctx context.Context) error {
	state, err := n.deps.Locator.CheckPermissions(ctx)
	if err != nil {
		n.fail(ctx, notePermissionCheckFailed, err)
		return fmt.Errorf("%w: %v", ErrPermissionCheck, err)
	}
	if state == geolocation.PermissionGranted {
		return nil
	}

	state, err = n.deps.Locator.RequestPermissions(ctx)
	if err != nil {
		n.fail(ctx, notePermissionCheckFailed, err)
		return fmt.Errorf("%w: %v", ErrPermissionCheck, err)
	}
	if state != geolocation.PermissionGranted {
		n.fail(ctx, notePermissionsRequired, ErrPermissionDenied)
		return ErrPermissionDenied
	}
	return nil
}

// SelectDestination places the destination marker and requests a driving
// route from the user's location. The route is applied only if nothing newer
// happened while it was in flight.
func (n *Navigator) SelectDestination(ctx context.Context, dest orb.Point) error {
	if !geo.Valid(dest) {
		return fmt.Errorf("invalid destination %v", dest)
	}

	n.mu.Lock()
	if n.userLocation == nil {
		n.mu.Unlock()
		return ErrNoUserLocation
	}
	n.generation++
	gen := n.generation
	origin := *n.userLocation
	d := dest
	n.destination = &d
	n.deps.Surface.SetDestinationMarker(dest)
	n.mu.Unlock()

	route, err := n.deps.Routes.Route(ctx, origin, dest)
	if err != nil {
		if n.superseded(gen) {
			n.logger.Info("Ignoring failed route for superseded destination", "error", err)
			return ErrRouteSuperseded
		}
		n.fail(ctx, noteRouteUnavailable, err)
		return fmt.Errorf("fetch route: %w", err)
	}

	n.mu.Lock()
	if gen != n.generation {
		n.mu.Unlock()
		n.logger.Info("Discarding superseded route")
		return ErrRouteSuperseded
	}
	n.route = &route
	n.display = Display{
		Distance: n.format.RouteDistance(route.DistanceMeters),
		Duration: n.format.Duration(route.DurationSeconds),
	}
	if n.navigating {
		n.tracker = NewTracker(route.Points, n.cfg.TrimRadiusMeters)
		n.tracker.Seed(*n.userLocation)
	}
	n.deps.Surface.SetRoute(route.Points)
	n.deps.Surface.ShowDisplay(n.display)
	n.mu.Unlock()

	n.logger.Info("Route created",
		"points", len(route.Points),
		"distance_m", route.DistanceMeters,
		"duration_s", route.DurationSeconds,
	)

	if n.deps.Journal != nil {
		if err := n.deps.Journal.RouteCreated(context.WithoutCancel(ctx), n.cfg.UserID, origin, dest, route); err != nil {
			n.logger.Warn("Failed to record route", "error", err)
		}
	}
	return nil
}

func (n *Navigator) superseded(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return gen != n.generation
}

// StartNavigation subscribes to position updates. Calling it while already
// navigating does nothing.
func (n *Navigator) StartNavigation(ctx context.Context) error {
	n.mu.Lock()
	if n.destination == nil {
		n.mu.Unlock()
		return ErrNoDestination
	}
	if n.navigating {
		n.mu.Unlock()
		return nil
	}

	seq := n.watchSeq + 1
	id, err := n.deps.Locator.WatchPosition(ctx, n.cfg.Position, func(s Sample) {
		n.handlePosition(context.Background(), seq, s)
	})
	if err != nil {
		n.mu.Unlock()
		if errors.Is(err, ErrPermissionDenied) {
			n.fail(ctx, notePermissionsRequired, err)
		} else {
			n.fail(ctx, noteLocationUnavailable, err)
		}
		return fmt.Errorf("watch position: %w", err)
	}

	n.watchSeq = seq
	n.watchID = id
	n.navigating = true

	var points orb.LineString
	var route Route
	if n.route != nil {
		route = *n.route
		points = route.Points
	}
	n.tracker = NewTracker(points, n.cfg.TrimRadiusMeters)
	if n.userLocation != nil {
		n.tracker.Seed(*n.userLocation)
	}
	dest := *n.destination
	n.mu.Unlock()

	n.logger.Info("Navigation started", "watch_id", id)

	if n.deps.Journal != nil {
		if err := n.deps.Journal.NavigationStarted(context.WithoutCancel(ctx), n.cfg.UserID, dest, route); err != nil {
			n.logger.Warn("Failed to record navigation start", "error", err)
		}
	}
	return nil
}

// HandlePosition applies a fix as if it came from the active watch. It
// reports whether the fix changed anything.
func (n *Navigator) HandlePosition(ctx context.Context, s Sample) bool {
	n.mu.Lock()
	seq := n.watchSeq
	n.mu.Unlock()
	return n.handlePosition(ctx, seq, s)
}

func (n *Navigator) handlePosition(ctx context.Context, seq uint64, s Sample) bool {
	n.mu.Lock()
	if !n.navigating || seq != n.watchSeq || n.tracker == nil {
		n.mu.Unlock()
		return false
	}
	if !geo.Valid(s.Position) {
		n.mu.Unlock()
		n.logger.Warn("Ignoring invalid fix", "position", s.Position)
		return false
	}

	update, ok := n.tracker.Update(s)
	if !ok {
		n.mu.Unlock()
		return false
	}

	p := update.Position
	n.userLocation = &p
	n.bearing = update.Bearing
	n.deps.Surface.SetUserMarker(p, update.Bearing)
	if n.route != nil {
		n.route.Points = update.Remaining
		n.display.Distance = n.format.RemainingDistance(update.RemainingKM)
		n.deps.Surface.SetRoute(update.Remaining)
		n.deps.Surface.ShowDisplay(n.display)
	}
	n.deps.Surface.EaseTo(p, n.cfg.EaseDuration)
	n.mu.Unlock()

	if n.deps.Locations != nil {
		if err := n.deps.Locations.PublishLocation(ctx, n.cfg.UserID, s); err != nil {
			n.logger.Error("Failed to publish location", "error", err)
			n.report(err)
		}
	}
	if n.deps.Journal != nil {
		if err := n.deps.Journal.PositionTracked(ctx, n.cfg.UserID, s); err != nil {
			n.logger.Warn("Failed to record position", "error", err)
		}
	}
	return true
}

// StopNavigation ends the watch and clears the route, destination and
// status panel. No fix is applied after it returns.
func (n *Navigator) StopNavigation(ctx context.Context) error {
	n.mu.Lock()
	wasNavigating := n.navigating
	id := n.watchID

	n.navigating = false
	n.watchID = ""
	n.watchSeq++
	n.generation++
	n.tracker = nil
	n.destination = nil
	n.route = nil
	n.display = Display{}

	n.deps.Surface.ClearRoute()
	n.deps.Surface.RemoveDestinationMarker()
	n.deps.Surface.ShowDisplay(Display{})
	n.mu.Unlock()

	// The lock is released first: a callback in flight may be waiting on it,
	// and ClearWatch waits for that callback.
	if id != "" {
		if err := n.deps.Locator.ClearWatch(ctx, id); err != nil {
			n.logger.Warn("Failed to clear position watch", "watch_id", id, "error", err)
			return fmt.Errorf("clear watch: %w", err)
		}
	}

	if wasNavigating {
		n.logger.Info("Navigation stopped")
		if n.deps.Journal != nil {
			if err := n.deps.Journal.NavigationStopped(context.WithoutCancel(ctx), n.cfg.UserID); err != nil {
				n.logger.Warn("Failed to record navigation stop", "error", err)
			}
		}
	}
	return nil
}

// Close releases the position watch, if any.
func (n *Navigator) Close(ctx context.Context) error {
	n.mu.Lock()
	active := n.navigating
	n.mu.Unlock()
	if !active {
		return nil
	}
	return n.StopNavigation(ctx)
}

func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	st := State{
		UserID:      n.cfg.UserID,
		Display:     n.display,
		Bearing:     n.bearing,
		Locating:    n.locating,
		Navigating:  n.navigating,
		WatchActive: n.watchID != "",
	}
	if n.userLocation != nil {
		p := *n.userLocation
		st.UserLocation = &p
	}
	if n.destination != nil {
		d := *n.destination
		st.Destination = &d
	}
	if n.route != nil {
		st.Route = append(orb.LineString(nil), n.route.Points...)
	}
	return st
}

func (n *Navigator) fail(ctx context.Context, note Notification, err error) {
	n.logger.Warn(note.Title, "error", err)
	n.report(err)

	if n.deps.Notifier == nil {
		return
	}
	if nerr := n.deps.Notifier.Notify(context.WithoutCancel(ctx), n.cfg.UserID, note); nerr != nil {
		n.logger.Error("Failed to deliver notification", "title", note.Title, "error", nerr)
	}
}

func (n *Navigator) report(err error) {
	if n.deps.ReportError != nil {
		n.deps.ReportError(err, map[string]interface{}{"user_id": n.cfg.UserID})
	}
}
