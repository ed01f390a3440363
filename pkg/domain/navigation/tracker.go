package navigation

import (
	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/domain/geo"
)

// TrackUpdate is what a single fix changes on the map.
type TrackUpdate struct {
	Position    orb.Point
	Bearing     float64
	Remaining   orb.LineString
	RemainingKM float64
}

// Tracker consumes fixes along a route. It remembers the last position so
// the user arrow can point in the direction of travel, and drops route
// points the user has come within the trim radius of.
type Tracker struct {
	remaining orb.LineString
	threshold float64

	previous    orb.Point
	hasPrevious bool
	bearing     float64
}

func NewTracker(route orb.LineString, thresholdMeters float64) *Tracker {
	if thresholdMeters <= 0 {
		thresholdMeters = geo.DefaultTrimRadiusMeters
	}
	return &Tracker{
		remaining: append(orb.LineString(nil), route...),
		threshold: thresholdMeters,
	}
}

// Seed sets the position the next fix is measured from.
func (t *Tracker) Seed(p orb.Point) {
	t.previous = p
	t.hasPrevious = true
}

// Update applies a fix. It reports false, and changes nothing, when there is
// no previous position to measure from.
func (t *Tracker) Update(s Sample) (TrackUpdate, bool) {
	if !t.hasPrevious {
		return TrackUpdate{}, false
	}

	// a fix at the same spot has no direction; keep the arrow where it was
	if s.Position != t.previous {
		t.bearing = geo.Bearing(t.previous, s.Position)
	}
	t.remaining = geo.TrimRoute(t.remaining, s.Position, t.threshold)
	t.previous = s.Position

	return TrackUpdate{
		Position:    s.Position,
		Bearing:     t.bearing,
		Remaining:   t.remaining,
		RemainingKM: geo.LengthKM(t.remaining),
	}, true
}

func (t *Tracker) Remaining() orb.LineString { return t.remaining }
