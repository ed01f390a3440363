package navigation

import (
	"errors"

	"github.com/wandermap/navigator/pkg/geolocation"
)

var (
	ErrNoUserLocation      = errors.New("user location unknown")
	ErrNoDestination       = errors.New("no destination selected")
	ErrPermissionDenied    = geolocation.ErrPermissionDenied
	ErrPositionUnavailable = geolocation.ErrPositionUnavailable
	ErrPermissionCheck     = errors.New("could not verify location permissions")
	ErrRouteSuperseded     = errors.New("route response superseded")
	ErrLocateInProgress    = errors.New("locate already in progress")
)
