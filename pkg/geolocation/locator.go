// Package geolocation models the device location plugin: permission state,
// one-shot fixes and position watches.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// PermissionState mirrors the states a device reports for location access.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// ParsePermissionState validates a state reported by a client.
func ParsePermissionState(s string) (PermissionState, error) {
	switch PermissionState(s) {
	case PermissionGranted, PermissionDenied, PermissionPrompt:
		return PermissionState(s), nil
	}
	return "", fmt.Errorf("unknown permission state %q", s)
}

const (
	DefaultMaximumAge = 10 * time.Second
	DefaultTimeout    = 30 * time.Second
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = fmt.Errorf("%w: timed out waiting for a fix", ErrPositionUnavailable)
	ErrUnknownWatch        = errors.New("unknown watch id")
)

// PositionOptions controls a fix request. Zero durations fall back to the
// defaults.
type PositionOptions struct {
	EnableHighAccuracy bool
	MaximumAge         time.Duration
	Timeout            time.Duration
}

// HighAccuracy is the option set used for navigation.
func HighAccuracy() PositionOptions {
	return PositionOptions{
		EnableHighAccuracy: true,
		MaximumAge:         DefaultMaximumAge,
		Timeout:            DefaultTimeout,
	}
}

func (o PositionOptions) withDefaults() PositionOptions {
	if o.MaximumAge <= 0 {
		o.MaximumAge = DefaultMaximumAge
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Sample is a single position fix. Position is [lon, lat].
type Sample struct {
	Position  orb.Point
	Timestamp time.Time
	Accuracy  float64
}

func (s Sample) Longitude() float64 { return s.Position.Lon() }
func (s Sample) Latitude() float64  { return s.Position.Lat() }

type WatchID string

// Callback receives fixes for a watch, one at a time, in arrival order.
type Callback func(Sample)

// Locator is the contract the navigator consumes.
type Locator interface {
	CheckPermissions(ctx context.Context) (PermissionState, error)
	RequestPermissions(ctx context.Context) (PermissionState, error)
	CurrentPosition(ctx context.Context, opts PositionOptions) (Sample, error)
	WatchPosition(ctx context.Context, opts PositionOptions, cb Callback) (WatchID, error)
	// ClearWatch returns once no further callbacks for the watch will run.
	ClearWatch(ctx context.Context, id WatchID) error
	ActiveWatches() int
}
