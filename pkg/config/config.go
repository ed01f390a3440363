// Package config loads navigator.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/wandermap/navigator/pkg/domain/geo"
	"github.com/wandermap/navigator/pkg/domain/navigation"
	"github.com/wandermap/navigator/pkg/geolocation"
	"github.com/wandermap/navigator/pkg/infrastructure/mapsurface"
	"github.com/wandermap/navigator/pkg/integrations/directions"
)

// DefaultPath is looked up when no path is given.
const DefaultPath = "navigator.yaml"

type ServerConfig struct {
	Port              int `yaml:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeoutMS int `yaml:"shutdownTimeoutMS" validate:"gte=0"`
}

type MapConfig struct {
	Style          string     `yaml:"style" validate:"required"`
	Center         [2]float64 `yaml:"center"`
	Zoom           float64    `yaml:"zoom" validate:"gte=0,lte=24"`
	LocateZoom     float64    `yaml:"locateZoom" validate:"gte=0,lte=24"`
	EaseDurationMS int        `yaml:"easeDurationMS" validate:"gte=0"`
}

type TrackingConfig struct {
	TrimRadiusMeters float64 `yaml:"trimRadiusMeters" validate:"gt=0"`
}

type DirectionsConfig struct {
	Provider    string `yaml:"provider" validate:"oneof=mapbox osrm"`
	BaseURL     string `yaml:"baseURL" validate:"omitempty,url"`
	Profile     string `yaml:"profile" validate:"required"`
	AccessToken string `yaml:"accessToken"`
	TimeoutMS   int    `yaml:"timeoutMS" validate:"gte=0"`
}

type DisplayConfig struct {
	Locale string `yaml:"locale" validate:"required"`
}

type GeolocationConfig struct {
	MaximumAgeMS int `yaml:"maximumAgeMS" validate:"gte=0"`
	TimeoutMS    int `yaml:"timeoutMS" validate:"gte=0"`
}

type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Map         MapConfig         `yaml:"map"`
	Tracking    TrackingConfig    `yaml:"tracking"`
	Directions  DirectionsConfig  `yaml:"directions"`
	Display     DisplayConfig     `yaml:"display"`
	Geolocation GeolocationConfig `yaml:"geolocation"`
}

// Default returns the configuration used when no file exists. The map opens
// on Campo Verde.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 8080, ShutdownTimeoutMS: 10000},
		Map: MapConfig{
			Style:          "mapbox://styles/mapbox/streets-v11",
			Center:         [2]float64{-55.9414, -15.2924},
			Zoom:           12,
			LocateZoom:     navigation.DefaultLocateZoom,
			EaseDurationMS: int(navigation.DefaultEaseDuration / time.Millisecond),
		},
		Tracking: TrackingConfig{TrimRadiusMeters: geo.DefaultTrimRadiusMeters},
		Directions: DirectionsConfig{
			Provider:  string(directions.ProviderMapbox),
			Profile:   directions.DefaultProfile,
			TimeoutMS: int(directions.DefaultTimeout / time.Millisecond),
		},
		Display: DisplayConfig{Locale: "en"},
		Geolocation: GeolocationConfig{
			MaximumAgeMS: int(geolocation.DefaultMaximumAge / time.Millisecond),
			TimeoutMS:    int(geolocation.DefaultTimeout / time.Millisecond),
		},
	}
}

// Load reads and validates the file at path over the defaults. A missing
// file at the default path is not an error. MAPBOX_ACCESS_TOKEN overrides
// the directions token.
func Load(path string) (AppConfig, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
	}

	if token := os.Getenv("MAPBOX_ACCESS_TOKEN"); token != "" {
		cfg.Directions.AccessToken = token
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	v := validator.New()
	for _, section := range []interface{}{c.Server, c.Map, c.Tracking, c.Directions, c.Display, c.Geolocation} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	if !geolocationValid(c.Map.Center) {
		return fmt.Errorf("invalid config: map center %v out of range", c.Map.Center)
	}
	return nil
}

func geolocationValid(p [2]float64) bool {
	return p[0] >= -180 && p[0] <= 180 && p[1] >= -90 && p[1] <= 90
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (c AppConfig) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeoutMS <= 0 {
		return 10 * time.Second
	}
	return ms(c.Server.ShutdownTimeoutMS)
}

// MapDefaults is the camera a new map client starts with.
func (c AppConfig) MapDefaults() mapsurface.Defaults {
	return mapsurface.Defaults{
		Style:  c.Map.Style,
		Center: orb.Point(c.Map.Center),
		Zoom:   c.Map.Zoom,
	}
}

// Navigator returns the navigator settings for one user.
func (c AppConfig) Navigator(userID string) navigation.Config {
	return navigation.Config{
		UserID:           userID,
		LocateZoom:       c.Map.LocateZoom,
		EaseDuration:     ms(c.Map.EaseDurationMS),
		TrimRadiusMeters: c.Tracking.TrimRadiusMeters,
		Locale:           c.Display.Locale,
		Position:         c.PositionOptions(),
	}
}

func (c AppConfig) DirectionsClient() directions.Config {
	return directions.Config{
		Provider:    directions.Provider(c.Directions.Provider),
		BaseURL:     c.Directions.BaseURL,
		Profile:     c.Directions.Profile,
		AccessToken: c.Directions.AccessToken,
		Timeout:     ms(c.Directions.TimeoutMS),
	}
}

// PositionOptions are the options used for one-shot locates.
func (c AppConfig) PositionOptions() geolocation.PositionOptions {
	return geolocation.PositionOptions{
		EnableHighAccuracy: true,
		MaximumAge:         ms(c.Geolocation.MaximumAgeMS),
		Timeout:            ms(c.Geolocation.TimeoutMS),
	}
}
