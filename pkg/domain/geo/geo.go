// Package geo holds the navigation math: bearings, surface distances and route trimming.
// Points are orb.Point values in [longitude, latitude] order, matching GeoJSON.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DefaultTrimRadiusMeters is the radius within which route points count as traversed.
const DefaultTrimRadiusMeters = 20.0

// EarthRadiusMeters is the mean earth radius used for every surface distance.
// orb measures with the equatorial radius, so its results are rescaled.
const EarthRadiusMeters = 6371008.8

const radiusScale = EarthRadiusMeters / orb.EarthRadius

// Bearing returns the initial great-circle bearing from one point toward another,
// in degrees normalized into [0, 360).
func Bearing(from, to orb.Point) float64 {
	b := math.Mod(orbgeo.Bearing(from, to)+360, 360)
	if b >= 360 || b < 0 || math.IsNaN(b) {
		return 0
	}
	return b
}

// DistanceMeters returns the haversine surface distance between two points
// on a sphere of EarthRadiusMeters.
func DistanceMeters(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b) * radiusScale
}

// TrimRoute drops every route point that lies within thresholdMeters of position.
// Points strictly farther than the threshold are kept in their original order.
// The input slice is never modified.
func TrimRoute(points orb.LineString, position orb.Point, thresholdMeters float64) orb.LineString {
	remaining := make(orb.LineString, 0, len(points))
	for _, p := range points {
		if DistanceMeters(p, position) > thresholdMeters {
			remaining = append(remaining, p)
		}
	}
	return remaining
}

// LengthKM returns the haversine length of the polyline in kilometres.
func LengthKM(points orb.LineString) float64 {
	if len(points) < 2 {
		return 0
	}
	return orbgeo.LengthHaversine(points) * radiusScale / 1000
}

// Valid reports whether the point is a usable WGS84 coordinate.
func Valid(p orb.Point) bool {
	lon, lat := p.Lon(), p.Lat()
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
