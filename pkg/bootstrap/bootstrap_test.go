package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/wandermap/navigator/pkg"
	infrapubsub "github.com/wandermap/navigator/pkg/infrastructure/pubsub"
	"github.com/wandermap/navigator/pkg/infrastructure/realtime"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{"GOOGLE_CLOUD_PROJECT", "ENABLE_PUBLISH", "LOCAL_MODE", "ENVIRONMENT", "GCS_TRIP_BUCKET"} {
			t.Setenv(k, "")
		}
		cfg := LoadConfig()
		assert.Equal(t, shared.ProjectID, cfg.ProjectID)
		assert.False(t, cfg.EnablePublish)
		assert.False(t, cfg.LocalMode)
		assert.Equal(t, "development", cfg.Environment)
		assert.Empty(t, cfg.clientOptions())
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("GOOGLE_CLOUD_PROJECT", "proj-1")
		t.Setenv("FIREBASE_DATABASE_URL", "https://proj-1.firebaseio.com")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/sa.json")
		t.Setenv("ENABLE_PUBLISH", "true")
		t.Setenv("GCS_TRIP_BUCKET", "trips")
		t.Setenv("SENTRY_DSN", "")
		t.Setenv("LOCAL_MODE", "true")

		cfg := LoadConfig()
		assert.Equal(t, "proj-1", cfg.ProjectID)
		assert.Equal(t, "https://proj-1.firebaseio.com", cfg.DatabaseURL)
		assert.True(t, cfg.EnablePublish)
		assert.Equal(t, "trips", cfg.TripBucket)
		assert.True(t, cfg.LocalMode)
		assert.Len(t, cfg.clientOptions(), 1)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentHandler(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, GetSlogHandlerOptions(slog.LevelInfo))
	logger := slog.New(&ComponentHandler{Handler: h})

	logger.With("component", "navigator").Info("User located", "user_id", "u1")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[navigator] User located", entry["message"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "navigator", entry["component"])
	assert.Equal(t, "u1", entry["user_id"])

	buf.Reset()
	logger.Info("plain")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "plain", entry["message"])
}

func TestNewService_LocalMode(t *testing.T) {
	svc, err := NewService(context.Background(), &Config{ProjectID: "p", LocalMode: true}, nil)
	require.NoError(t, err)

	assert.Nil(t, svc.DB)
	assert.Nil(t, svc.Store)
	assert.Nil(t, svc.Push)
	assert.IsType(t, &infrapubsub.LogPublisher{}, svc.Pub)
	assert.IsType(t, &realtime.LogLocationSink{}, svc.Locations)
	assert.NoError(t, svc.Close())
}
