package mapsurface

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wandermap/navigator/pkg/domain/navigation"
)

// Outbound command types.
const (
	TypeInit              = "init"
	TypeFlyTo             = "fly_to"
	TypeEaseTo            = "ease_to"
	TypeUserMarker        = "user_marker"
	TypeDestinationMarker = "destination_marker"
	TypeDestinationClear  = "destination_clear"
	TypeRoute             = "route"
	TypeRouteClear        = "route_clear"
	TypeDisplay           = "display"
	TypeToast             = "toast"
)

// Inbound frame types.
const (
	TypeMapClick = "map_click"
)

type Camera struct {
	Center     orb.Point `json:"center"`
	Zoom       float64   `json:"zoom,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
}

type Marker struct {
	Position orb.Point `json:"position"`
	Bearing  float64   `json:"bearing"`
}

// Click is the payload of a map_click frame.
type Click struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (h *Hub) FlyTo(center orb.Point, zoom float64) {
	h.Broadcast(TypeFlyTo, Camera{Center: center, Zoom: zoom})
}

func (h *Hub) EaseTo(center orb.Point, d time.Duration) {
	h.Broadcast(TypeEaseTo, Camera{Center: center, DurationMS: d.Milliseconds()})
}

func (h *Hub) SetUserMarker(p orb.Point, bearing float64) {
	h.Broadcast(TypeUserMarker, Marker{Position: p, Bearing: bearing})
}

func (h *Hub) SetDestinationMarker(p orb.Point) {
	h.Broadcast(TypeDestinationMarker, Marker{Position: p})
}

func (h *Hub) RemoveDestinationMarker() {
	h.Broadcast(TypeDestinationClear, nil)
}

// SetRoute sends the route line as a GeoJSON feature.
func (h *Hub) SetRoute(points orb.LineString) {
	if points == nil {
		points = orb.LineString{}
	}
	f := geojson.NewFeature(points)
	f.Properties["points"] = len(points)
	h.Broadcast(TypeRoute, f)
}

func (h *Hub) ClearRoute() {
	h.Broadcast(TypeRouteClear, nil)
}

func (h *Hub) ShowDisplay(d navigation.Display) {
	h.Broadcast(TypeDisplay, d)
}

// Toast shows a notification on every connected client.
func (h *Hub) Toast(n navigation.Notification) {
	h.Broadcast(TypeToast, n)
}

var _ navigation.MapSurface = (*Hub)(nil)
