// Package trace accumulates the fixes of a navigation session and exports
// them as GeoJSON and as a FIT activity.
package trace

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/domain/geo"
	"github.com/wandermap/navigator/pkg/geolocation"
)

type Point struct {
	Position orb.Point
	Time     time.Time
}

type Trace struct {
	SessionID   string
	UserID      string
	Destination orb.Point
	StartedAt   time.Time
	EndedAt     time.Time
	Points      []Point
}

func New(userID, sessionID string, destination orb.Point, startedAt time.Time) *Trace {
	return &Trace{
		SessionID:   sessionID,
		UserID:      userID,
		Destination: destination,
		StartedAt:   startedAt,
	}
}

// Append adds a fix. Fixes without a timestamp take the time of the previous
// point, or the start time.
func (t *Trace) Append(s geolocation.Sample) {
	ts := s.Timestamp
	if ts.IsZero() {
		ts = t.StartedAt
		if n := len(t.Points); n > 0 {
			ts = t.Points[n-1].Time
		}
	}
	t.Points = append(t.Points, Point{Position: s.Position, Time: ts})
}

func (t *Trace) Len() int { return len(t.Points) }

func (t *Trace) Line() orb.LineString {
	line := make(orb.LineString, len(t.Points))
	for i, p := range t.Points {
		line[i] = p.Position
	}
	return line
}

// DistanceMeters is the haversine length of the travelled path.
func (t *Trace) DistanceMeters() float64 {
	return geo.LengthKM(t.Line()) * 1000
}

// End returns EndedAt, or the last point's time while the trace is open.
func (t *Trace) End() time.Time {
	if !t.EndedAt.IsZero() {
		return t.EndedAt
	}
	if n := len(t.Points); n > 0 {
		return t.Points[n-1].Time
	}
	return t.StartedAt
}

func (t *Trace) Duration() time.Duration {
	d := t.End().Sub(t.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}
