package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandermap/navigator/pkg/integrations/directions"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navigator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, orb.Point{-55.9414, -15.2924}, cfg.MapDefaults().Center)
	assert.Equal(t, 12.0, cfg.MapDefaults().Zoom)

	nav := cfg.Navigator("u1")
	assert.Equal(t, "u1", nav.UserID)
	assert.Equal(t, 16.0, nav.LocateZoom)
	assert.Equal(t, time.Second, nav.EaseDuration)
	assert.Equal(t, 20.0, nav.TrimRadiusMeters)
	assert.True(t, nav.Position.EnableHighAccuracy)
	assert.Equal(t, 10*time.Second, nav.Position.MaximumAge)
	assert.Equal(t, 30*time.Second, nav.Position.Timeout)

	dir := cfg.DirectionsClient()
	assert.Equal(t, directions.ProviderMapbox, dir.Provider)
	assert.Equal(t, "driving", dir.Profile)
	assert.Equal(t, 10*time.Second, dir.Timeout)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
	path := writeFile(t, `
server:
  port: 9090
map:
  style: mapbox://styles/mapbox/dark-v11
  center: [-47.93, -15.78]
  zoom: 11
tracking:
  trimRadiusMeters: 35
directions:
  provider: osrm
  baseURL: http://localhost:5000
  profile: car
display:
  locale: pt-BR
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mapbox://styles/mapbox/dark-v11", cfg.Map.Style)
	assert.Equal(t, orb.Point{-47.93, -15.78}, cfg.MapDefaults().Center)
	assert.Equal(t, 35.0, cfg.Tracking.TrimRadiusMeters)
	assert.Equal(t, "pt-BR", cfg.Display.Locale)
	assert.Equal(t, directions.ProviderOSRM, cfg.DirectionsClient().Provider)
	assert.Equal(t, "http://localhost:5000", cfg.DirectionsClient().BaseURL)

	// untouched keys keep their defaults
	assert.Equal(t, 16.0, cfg.Map.LocateZoom)
	assert.Equal(t, 1000, cfg.Map.EaseDurationMS)
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.env")
	path := writeFile(t, "directions:\n  accessToken: pk.file\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pk.env", cfg.Directions.AccessToken)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")

	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "server: [port"},
		{"bad port", "server:\n  port: 0\n"},
		{"unknown provider", "directions:\n  provider: here\n"},
		{"bad base url", "directions:\n  baseURL: not a url\n"},
		{"zero trim radius", "tracking:\n  trimRadiusMeters: 0\n"},
		{"center out of range", "map:\n  center: [200, 0]\n"},
		{"empty locale", "display:\n  locale: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
