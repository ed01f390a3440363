package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestBearing_CardinalDirections(t *testing.T) {
	origin := orb.Point{0, 0}
	tests := []struct {
		name     string
		to       orb.Point
		expected float64
	}{
		{name: "north", to: orb.Point{0, 1}, expected: 0},
		{name: "east", to: orb.Point{1, 0}, expected: 90},
		{name: "south", to: orb.Point{0, -1}, expected: 180},
		{name: "west", to: orb.Point{-1, 0}, expected: 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			// north may come back as a hair under 360
			diff := math.Abs(got - tt.expected)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > 1e-9 {
				t.Errorf("Bearing(%v, %v) = %v, want %v", origin, tt.to, got, tt.expected)
			}
		})
	}
}

func TestBearing_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		from := orb.Point{rng.Float64()*360 - 180, rng.Float64()*180 - 90}
		to := orb.Point{rng.Float64()*360 - 180, rng.Float64()*180 - 90}
		b := Bearing(from, to)
		if b < 0 || b >= 360 {
			t.Fatalf("Bearing(%v, %v) = %v, out of [0, 360)", from, to, b)
		}
	}
}

func TestBearing_SamePoint(t *testing.T) {
	p := orb.Point{-55.9414, -15.2924}
	b := Bearing(p, p)
	assert.GreaterOrEqual(t, b, 0.0)
	assert.Less(t, b, 360.0)
}

func TestTrimRoute(t *testing.T) {
	position := orb.Point{0, 0}
	route := orb.LineString{
		{0, 0.0001}, // ~11 m
		{0, 0.0002}, // ~22 m
		{0, 0.001},  // ~111 m
		{0, -0.0001},
	}

	remaining := TrimRoute(route, position, DefaultTrimRadiusMeters)

	assert.Equal(t, orb.LineString{{0, 0.0002}, {0, 0.001}}, remaining)
	assert.Len(t, route, 4, "input must not be modified")
	for _, p := range remaining {
		assert.Greater(t, DistanceMeters(p, position), DefaultTrimRadiusMeters)
	}
}

func TestTrimRoute_NeverGrows(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	route := make(orb.LineString, 200)
	for i := range route {
		route[i] = orb.Point{-55.94 + rng.Float64()*0.01, -15.29 + rng.Float64()*0.01}
	}

	current := route
	for i := 0; i < 50; i++ {
		pos := orb.Point{-55.94 + rng.Float64()*0.01, -15.29 + rng.Float64()*0.01}
		next := TrimRoute(current, pos, DefaultTrimRadiusMeters)
		if len(next) > len(current) {
			t.Fatalf("trim grew the route from %d to %d points", len(current), len(next))
		}
		for _, p := range next {
			if DistanceMeters(p, pos) <= DefaultTrimRadiusMeters {
				t.Fatalf("point %v within threshold of %v survived", p, pos)
			}
		}
		current = next
	}
}

func TestTrimRoute_IdenticalSamplesAreStable(t *testing.T) {
	route := orb.LineString{{0, 0.0005}, {0, 0.001}, {0, 0.002}}
	pos := orb.Point{0, 0}

	first := TrimRoute(route, pos, DefaultTrimRadiusMeters)
	second := TrimRoute(first, pos, DefaultTrimRadiusMeters)

	assert.Equal(t, first, second)
}

func TestTrimRoute_Empty(t *testing.T) {
	remaining := TrimRoute(nil, orb.Point{0, 0}, DefaultTrimRadiusMeters)
	assert.Empty(t, remaining)
}

func TestLengthKM(t *testing.T) {
	assert.Equal(t, 0.0, LengthKM(nil))
	assert.Equal(t, 0.0, LengthKM(orb.LineString{{1, 1}}))

	// one degree of latitude on the orb sphere
	got := LengthKM(orb.LineString{{0, 0}, {0, 1}})
	assert.InDelta(t, 111.195, got, 0.001)

	got = LengthKM(orb.LineString{{0, 0}, {0, 0.5}, {0, 1}})
	assert.InDelta(t, 111.195, got, 0.001)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(orb.Point{-55.9414, -15.2924}))
	assert.True(t, Valid(orb.Point{180, 90}))
	assert.False(t, Valid(orb.Point{181, 0}))
	assert.False(t, Valid(orb.Point{0, -91}))
	assert.False(t, Valid(orb.Point{math.NaN(), 0}))
	assert.False(t, Valid(orb.Point{0, math.Inf(1)}))
}

func TestDistanceMeters_MeanEarthRadius(t *testing.T) {
	tests := []struct {
		name     string
		a, b     orb.Point
		expected float64
	}{
		{name: "thousandth of a degree of latitude", a: orb.Point{0, 0}, b: orb.Point{0, 0.001}, expected: 111.195},
		{name: "one degree of longitude at the equator", a: orb.Point{0, 0}, b: orb.Point{1, 0}, expected: 111195.08},
		{name: "campo verde block", a: orb.Point{-55.9414, -15.2924}, b: orb.Point{-55.9364, -15.2924}, expected: 536.29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceMeters(tt.a, tt.b), 0.01)
		})
	}
}

func TestTrimRoute_JustInsideRadiusIsDropped(t *testing.T) {
	position := orb.Point{0, 0}
	// 19.99 m on the mean-radius sphere, 20.01 m on the equatorial one
	inside := orb.Point{0, 19.993 / EarthRadiusMeters * 180 / math.Pi}

	assert.Less(t, DistanceMeters(position, inside), DefaultTrimRadiusMeters)
	assert.Empty(t, TrimRoute(orb.LineString{inside}, position, DefaultTrimRadiusMeters))
}
