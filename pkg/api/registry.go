package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/paulmach/orb"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/config"
	"github.com/wandermap/navigator/pkg/domain/navigation"
	"github.com/wandermap/navigator/pkg/geolocation"
	"github.com/wandermap/navigator/pkg/infrastructure/mapsurface"
	"github.com/wandermap/navigator/pkg/infrastructure/notifications"
)

// Session is the live state of one user: the device feeding positions, the
// connected maps and the navigator tying them together.
type Session struct {
	UserID    string
	Locator   *geolocation.DeviceLocator
	Hub       *mapsurface.Hub
	Navigator *navigation.Navigator
}

// RegistryDeps are shared by every session. Only Routes is required.
type RegistryDeps struct {
	Routes      navigation.RouteProvider
	Locations   navigation.LocationSink
	Journal     navigation.Journal
	DB          shared.Database
	Push        shared.NotificationService
	ReportError func(err error, context map[string]interface{})
}

// Registry creates sessions on first use and keeps them until Close.
type Registry struct {
	cfg    config.AppConfig
	deps   RegistryDeps
	base   *slog.Logger
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

var ErrRegistryClosed = errors.New("registry closed")

func NewRegistry(cfg config.AppConfig, deps RegistryDeps, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:      cfg,
		deps:     deps,
		base:     logger,
		logger:   logger.With("component", "registry"),
		sessions: make(map[string]*Session),
	}
}

// Get returns the user's session, creating it if needed. Ids that are not a
// safe storage key are rejected with shared.ErrInvalidUserID.
func (r *Registry) Get(userID string) (*Session, error) {
	if err := shared.ValidateUserID(userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if s, ok := r.sessions[userID]; ok {
		return s, nil
	}

	s, err := r.newSession(userID)
	if err != nil {
		return nil, err
	}
	r.sessions[userID] = s
	r.logger.Info("Session created", "user_id", userID, "sessions", len(r.sessions))
	return s, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

func (r *Registry) UserIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) newSession(userID string) (*Session, error) {
	// each component tags its own records
	locator := geolocation.NewDeviceLocator(r.base)
	hub := mapsurface.NewHub(userID, r.cfg.MapDefaults(), r.base)

	nav, err := navigation.NewNavigator(r.cfg.Navigator(userID), navigation.Dependencies{
		Locator:     locator,
		Surface:     hub,
		Routes:      r.deps.Routes,
		Locations:   r.deps.Locations,
		Notifier:    r.notifier(),
		Journal:     r.deps.Journal,
		Logger:      r.base,
		ReportError: r.deps.ReportError,
	})
	if err != nil {
		hub.Close()
		return nil, fmt.Errorf("create navigator for %s: %w", userID, err)
	}

	hub.OnMessage(func(ctx context.Context, msg mapsurface.Message) {
		if msg.Type != mapsurface.TypeMapClick {
			return
		}
		var click mapsurface.Click
		if err := json.Unmarshal(msg.Data, &click); err != nil {
			r.logger.Warn("Malformed map click", "user_id", userID, "error", err)
			return
		}
		// a click before the user is located is ignored
		err := nav.SelectDestination(ctx, orb.Point{click.Longitude, click.Latitude})
		if err != nil {
			r.logger.Debug("Map click not applied", "user_id", userID, "error", err)
		}
	})

	return &Session{UserID: userID, Locator: locator, Hub: hub, Navigator: nav}, nil
}

// notifier logs every notification and shows it to the user once: on the
// live map when connected, by push otherwise.
func (r *Registry) notifier() navigation.Notifier {
	visible := notifications.FirstAvailable{
		&notifications.ToastNotifier{Lookup: r.toaster},
	}
	if r.deps.DB != nil && r.deps.Push != nil {
		visible = append(visible, &notifications.PushNotifier{DB: r.deps.DB, Service: r.deps.Push})
	}
	return notifications.Fanout{
		&notifications.LogNotifier{Logger: r.logger},
		visible,
	}
}

func (r *Registry) toaster(userID string) (notifications.Toaster, bool) {
	s, ok := r.Lookup(userID)
	if !ok {
		return nil, false
	}
	return s.Hub, true
}

// Close stops every navigation and disconnects every map.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Navigator.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.UserID, err))
		}
		s.Hub.Close()
	}
	return errors.Join(errs...)
}
