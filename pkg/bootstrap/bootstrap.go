package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/domain/navigation"
	"github.com/wandermap/navigator/pkg/infrastructure/database"
	"github.com/wandermap/navigator/pkg/infrastructure/notifications"
	infrapubsub "github.com/wandermap/navigator/pkg/infrastructure/pubsub"
	"github.com/wandermap/navigator/pkg/infrastructure/realtime"
	infrasentry "github.com/wandermap/navigator/pkg/infrastructure/sentry"
	infrastorage "github.com/wandermap/navigator/pkg/infrastructure/storage"
)

// Config holds the platform configuration read from the environment.
type Config struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsFile string
	EnablePublish   bool
	TripBucket      string
	SentryDSN       string
	Environment     string
	// LocalMode skips every Google Cloud client and logs instead.
	LocalMode bool
}

// Service holds initialized dependencies. DB, Store and Push are nil in
// local mode.
type Service struct {
	DB        shared.Database
	Store     shared.BlobStore
	Pub       shared.Publisher
	Push      shared.NotificationService
	Locations navigation.LocationSink
	Config    *Config

	closers []func() error
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &Config{
		ProjectID:       projectID,
		DatabaseURL:     os.Getenv("FIREBASE_DATABASE_URL"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		EnablePublish:   os.Getenv("ENABLE_PUBLISH") == "true",
		TripBucket:      os.Getenv("GCS_TRIP_BUCKET"),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		Environment:     env,
		LocalMode:       os.Getenv("LOCAL_MODE") == "true",
	}
}

func (c *Config) clientOptions() []option.ClientOption {
	if c.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	comp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			comp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: comp,
	}
}

func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false
		}
		return true
	})

	if comp == "" {
		return h.Handler.Handle(ctx, r)
	}

	// component stays in the structured payload as well
	prefixed := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", comp, r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		prefixed.AddAttrs(a)
		return true
	})
	return h.Handler.Handle(ctx, prefixed)
}

// ParseLevel maps LOG_LEVEL values to slog levels; anything unknown is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a configured logger instance and makes it the default.
func NewLogger(serviceName string) *slog.Logger {
	opts := GetSlogHandlerOptions(ParseLevel(os.Getenv("LOG_LEVEL")))
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
	slog.SetDefault(logger)
	return logger
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context, cfg *Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "bootstrap")
	logger.Info("Initializing service", "project_id", cfg.ProjectID, "local_mode", cfg.LocalMode)

	if err := infrasentry.Init(infrasentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		ServerName:  "navigator",
	}, logger); err != nil {
		// tracking is optional
		logger.Error("Sentry init failed", "error", err)
	}

	svc := &Service{Config: cfg}

	if cfg.LocalMode {
		svc.Pub = &infrapubsub.LogPublisher{Logger: logger}
		svc.Locations = &realtime.LogLocationSink{Logger: logger}
		logger.Info("Local mode: Firestore, GCS and FCM disabled")
		return svc, nil
	}

	opts := cfg.clientOptions()

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		logger.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}
	svc.closers = append(svc.closers, fsClient.Close)
	svc.DB = database.NewFirestoreAdapter(fsClient)

	// Pub/Sub
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			svc.Close()
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		svc.closers = append(svc.closers, psClient.Close)
		svc.Pub = &infrapubsub.PubSubAdapter{Client: psClient}
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		svc.Pub = &infrapubsub.LogPublisher{Logger: logger}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage
	gcsClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		svc.Close()
		logger.Error("Storage init failed", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}
	svc.closers = append(svc.closers, gcsClient.Close)
	svc.Store = &infrastorage.StorageAdapter{Client: gcsClient}
	if cfg.TripBucket == "" {
		logger.Warn("GCS_TRIP_BUCKET not set - trip traces will not be archived")
	}

	// Firebase: realtime database and messaging
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.ProjectID,
		DatabaseURL: cfg.DatabaseURL,
	}, opts...)
	if err != nil {
		svc.Close()
		logger.Error("Firebase init failed", "error", err)
		return nil, fmt.Errorf("firebase init: %w", err)
	}

	if cfg.DatabaseURL != "" {
		rtdb, err := app.Database(ctx)
		if err != nil {
			svc.Close()
			logger.Error("Realtime Database init failed", "error", err)
			return nil, fmt.Errorf("realtime database init: %w", err)
		}
		svc.Locations = realtime.NewLocationSink(rtdb, logger)
	} else {
		svc.Locations = &realtime.LogLocationSink{Logger: logger}
		logger.Warn("FIREBASE_DATABASE_URL not set - locations are only logged")
	}

	push, err := notifications.NewFCMAdapter(ctx, app, svc.DB, logger)
	if err != nil {
		svc.Close()
		logger.Error("FCM init failed", "error", err)
		return nil, fmt.Errorf("fcm init: %w", err)
	}
	svc.Push = push

	return svc, nil
}

// Close releases the cloud clients in reverse order of creation.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
