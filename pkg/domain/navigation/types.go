// Package navigation holds the per-user navigation view: where the user is,
// where they are going, the route between the two and what the map shows.
package navigation

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/geolocation"
)

// Sample is a position fix as delivered by the locator.
type Sample = geolocation.Sample

// Route is a driving route. Points shrink while navigating.
type Route struct {
	Points          orb.LineString
	DistanceMeters  float64
	DurationSeconds float64
}

// Display is the text of the status panel. Both fields empty hides it.
type Display struct {
	Distance string `json:"distance"`
	Duration string `json:"duration"`
}

func (d Display) Empty() bool { return d.Distance == "" && d.Duration == "" }

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a one-shot message for the user.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// MapSurface is the device map. The navigator is its only writer.
type MapSurface interface {
	FlyTo(center orb.Point, zoom float64)
	EaseTo(center orb.Point, duration time.Duration)
	// SetUserMarker replaces the user arrow, rotated clockwise from north.
	SetUserMarker(position orb.Point, bearing float64)
	SetDestinationMarker(position orb.Point)
	RemoveDestinationMarker()
	SetRoute(points orb.LineString)
	ClearRoute()
	ShowDisplay(d Display)
}

type RouteProvider interface {
	Route(ctx context.Context, from, to orb.Point) (Route, error)
}

// RouteProviderFunc adapts a plain function to RouteProvider.
type RouteProviderFunc func(ctx context.Context, from, to orb.Point) (Route, error)

func (f RouteProviderFunc) Route(ctx context.Context, from, to orb.Point) (Route, error) {
	return f(ctx, from, to)
}

// LocationSink receives every fix handled while navigating.
type LocationSink interface {
	PublishLocation(ctx context.Context, userID string, s Sample) error
}

type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification) error
}

// Journal records the lifecycle of a navigation for later inspection.
type Journal interface {
	RouteCreated(ctx context.Context, userID string, origin, destination orb.Point, route Route) error
	NavigationStarted(ctx context.Context, userID string, destination orb.Point, route Route) error
	PositionTracked(ctx context.Context, userID string, s Sample) error
	NavigationStopped(ctx context.Context, userID string) error
}

// State is a point-in-time copy of the navigator.
type State struct {
	UserID       string
	UserLocation *orb.Point
	Destination  *orb.Point
	Route        orb.LineString
	Display      Display
	Bearing      float64
	Locating     bool
	Navigating   bool
	WatchActive  bool
}
