// Package api exposes the navigator over HTTP: device fixes and permission
// answers come in, map commands go out over a websocket.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/domain/navigation"
	httputil "github.com/wandermap/navigator/pkg/infrastructure/http"
	infrasentry "github.com/wandermap/navigator/pkg/infrastructure/sentry"
	"github.com/wandermap/navigator/pkg/integrations/directions"
)

// SessionTracker reports the journal session of a user, if one is open.
type SessionTracker interface {
	ActiveSession(userID string) (string, bool)
}

type Server struct {
	registry *Registry
	db       shared.Database
	sessions SessionTracker
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer builds the API. db and sessions may be nil; the endpoints that
// need them then answer 503.
func NewServer(registry *Registry, db shared.Database, sessions SessionTracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry: registry,
		db:       db,
		sessions: sessions,
		validate: validator.New(),
		logger:   logger.With("component", "api"),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(infrasentry.Recoverer(s.logger))

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Use(s.requireUserID)
		r.Put("/permission", s.handlePermission)
		r.Post("/positions", s.handlePosition)
		r.Post("/locate", s.handleLocate)
		r.Post("/destination", s.handleDestination)
		r.Post("/navigation/start", s.handleStart)
		r.Post("/navigation/stop", s.handleStop)
		r.Get("/navigation", s.handleState)
		r.Get("/sessions/{sessionID}", s.handleSession)
		r.Put("/devices", s.handleDevice)
		r.Get("/map", s.handleMap)
	})

	return r
}

// requireUserID rejects ids that are not a safe storage key before any
// handler joins them into a database path or object name.
func (s *Server) requireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := shared.ValidateUserID(chi.URLParam(r, "userID")); err != nil {
			s.writeErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// decode reads a JSON body and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// session resolves the {userID} of the route.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.registry.Get(chi.URLParam(r, "userID"))
	if err != nil {
		s.writeErr(w, r, err)
		return nil, false
	}
	return sess, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, navigation.ErrNoUserLocation),
		errors.Is(err, navigation.ErrNoDestination),
		errors.Is(err, navigation.ErrLocateInProgress),
		errors.Is(err, navigation.ErrRouteSuperseded):
		return http.StatusConflict
	case errors.Is(err, navigation.ErrPermissionDenied),
		errors.Is(err, navigation.ErrPermissionCheck),
		errors.Is(err, navigation.ErrPositionUnavailable),
		errors.Is(err, directions.ErrNoRoute):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrInvalidUserID):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRegistryClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	httputil.WriteError(w, status, err.Error())
}
