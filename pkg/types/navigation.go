// Package types holds the records persisted by the navigator.
package types

import (
	"time"

	"github.com/paulmach/orb"
)

type UserRecord struct {
	UserID    string
	FCMTokens []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// NavigationSession is stored at users/{uid}/navigation_sessions/{id}.
type NavigationSession struct {
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	Status    SessionStatus `json:"status"`

	Destination          orb.Point `json:"destination"`
	RouteDistanceMeters  float64   `json:"route_distance_m"`
	RouteDurationSeconds float64   `json:"route_duration_s"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	PositionCount    int     `json:"position_count"`
	TravelledMeters  float64 `json:"travelled_m"`
	TraceGeoJSONPath string  `json:"trace_geojson_path,omitempty"`
	TraceFITPath     string  `json:"trace_fit_path,omitempty"`
}
