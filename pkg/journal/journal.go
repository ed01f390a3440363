// Package journal keeps the record of each navigation: a session document,
// lifecycle events and the archived trip trace.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/domain/navigation"
	"github.com/wandermap/navigator/pkg/domain/trace"
	"github.com/wandermap/navigator/pkg/geolocation"
	infrapubsub "github.com/wandermap/navigator/pkg/infrastructure/pubsub"
	"github.com/wandermap/navigator/pkg/types"
)

// Journal implements navigation.Journal. Every collaborator is optional.
type Journal struct {
	db     shared.Database
	pub    shared.Publisher
	store  shared.BlobStore
	bucket string
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	active map[string]*session
}

type session struct {
	record *types.NavigationSession
	trace  *trace.Trace
}

type Options struct {
	DB     shared.Database
	Pub    shared.Publisher
	Store  shared.BlobStore
	Bucket string
	Logger *slog.Logger
}

func New(opts Options) *Journal {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		db:     opts.DB,
		pub:    opts.Pub,
		store:  opts.Store,
		bucket: opts.Bucket,
		logger: logger.With("component", "journal"),
		now:    time.Now,
		active: make(map[string]*session),
	}
}

type routeEvent struct {
	UserID          string     `json:"user_id"`
	Origin          [2]float64 `json:"origin"`
	Destination     [2]float64 `json:"destination"`
	DistanceMeters  float64    `json:"distance_m"`
	DurationSeconds float64    `json:"duration_s"`
	Points          int        `json:"points"`
}

type sessionEvent struct {
	UserID          string     `json:"user_id"`
	SessionID       string     `json:"session_id"`
	Destination     [2]float64 `json:"destination"`
	DistanceMeters  float64    `json:"distance_m,omitempty"`
	PositionCount   int        `json:"position_count,omitempty"`
	TravelledMeters float64    `json:"travelled_m,omitempty"`
}

func (j *Journal) RouteCreated(ctx context.Context, userID string, origin, destination orb.Point, route navigation.Route) error {
	return j.publish(ctx, infrapubsub.EventRouteCreated, userID, routeEvent{
		UserID:          userID,
		Origin:          origin,
		Destination:     destination,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Points:          len(route.Points),
	})
}

func (j *Journal) NavigationStarted(ctx context.Context, userID string, destination orb.Point, route navigation.Route) error {
	if err := shared.ValidateUserID(userID); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	startedAt := j.now().UTC()
	rec := &types.NavigationSession{
		SessionID:            uuid.NewString(),
		UserID:               userID,
		Status:               types.SessionStatusActive,
		Destination:          destination,
		RouteDistanceMeters:  route.DistanceMeters,
		RouteDurationSeconds: route.DurationSeconds,
		StartedAt:            startedAt,
	}

	j.mu.Lock()
	if prev, ok := j.active[userID]; ok {
		j.logger.Warn("Replacing unfinished session", "user_id", userID, "session_id", prev.record.SessionID)
	}
	j.active[userID] = &session{
		record: rec,
		trace:  trace.New(userID, rec.SessionID, destination, startedAt),
	}
	j.mu.Unlock()

	var errs []error
	if j.db != nil {
		if err := j.db.SetNavigationSession(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("save session: %w", err))
		}
	}
	if err := j.publish(ctx, infrapubsub.EventNavigationStarted, userID, sessionEvent{
		UserID:         userID,
		SessionID:      rec.SessionID,
		Destination:    destination,
		DistanceMeters: route.DistanceMeters,
	}); err != nil {
		errs = append(errs, err)
	}

	j.logger.Info("Session started", "user_id", userID, "session_id", rec.SessionID)
	return errors.Join(errs...)
}

func (j *Journal) PositionTracked(ctx context.Context, userID string, s geolocation.Sample) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	sess, ok := j.active[userID]
	if !ok {
		return nil
	}
	sess.trace.Append(s)
	return nil
}

func (j *Journal) NavigationStopped(ctx context.Context, userID string) error {
	j.mu.Lock()
	sess, ok := j.active[userID]
	delete(j.active, userID)
	j.mu.Unlock()

	if !ok {
		return nil
	}

	endedAt := j.now().UTC()
	sess.trace.EndedAt = endedAt
	rec := sess.record

	var errs []error
	geojsonPath, fitPath, err := j.archive(ctx, sess.trace)
	if err != nil {
		errs = append(errs, err)
	}

	if j.db != nil {
		update := map[string]interface{}{
			"status":           string(types.SessionStatusCompleted),
			"ended_at":         endedAt,
			"position_count":   sess.trace.Len(),
			"travelled_meters": sess.trace.DistanceMeters(),
		}
		if geojsonPath != "" {
			update["trace_geojson_path"] = geojsonPath
		}
		if fitPath != "" {
			update["trace_fit_path"] = fitPath
		}
		if err := j.db.UpdateNavigationSession(ctx, userID, rec.SessionID, update); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}

	if err := j.publish(ctx, infrapubsub.EventNavigationStopped, userID, sessionEvent{
		UserID:          userID,
		SessionID:       rec.SessionID,
		Destination:     rec.Destination,
		PositionCount:   sess.trace.Len(),
		TravelledMeters: sess.trace.DistanceMeters(),
	}); err != nil {
		errs = append(errs, err)
	}

	j.logger.Info("Session completed",
		"user_id", userID,
		"session_id", rec.SessionID,
		"positions", sess.trace.Len(),
		"travelled_m", sess.trace.DistanceMeters(),
	)
	return errors.Join(errs...)
}

// ActiveSession returns the id of the user's open session.
func (j *Journal) ActiveSession(userID string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	sess, ok := j.active[userID]
	if !ok {
		return "", false
	}
	return sess.record.SessionID, true
}

// archive writes the trace to the blob store. An empty trace or a missing
// bucket is skipped.
func (j *Journal) archive(ctx context.Context, tr *trace.Trace) (string, string, error) {
	if j.store == nil || j.bucket == "" || tr.Len() == 0 {
		return "", "", nil
	}

	base := TraceObject(tr.UserID, tr.SessionID)
	geojsonPath := base + ".geojson"
	fitPath := base + ".fit"

	data, err := tr.GeoJSON()
	if err != nil {
		return "", "", fmt.Errorf("render geojson trace: %w", err)
	}
	if err := j.store.Write(ctx, j.bucket, geojsonPath, data); err != nil {
		return "", "", fmt.Errorf("archive geojson trace: %w", err)
	}

	fitData, err := tr.FIT()
	if err != nil {
		return geojsonPath, "", fmt.Errorf("render fit trace: %w", err)
	}
	if err := j.store.Write(ctx, j.bucket, fitPath, fitData); err != nil {
		return geojsonPath, "", fmt.Errorf("archive fit trace: %w", err)
	}

	return geojsonPath, fitPath, nil
}

// TraceObject is the object name prefix of a session's archived trace.
func TraceObject(userID, sessionID string) string {
	return path.Join(shared.TripTracePrefix, userID, sessionID)
}

func (j *Journal) publish(ctx context.Context, eventType, userID string, data interface{}) error {
	if j.pub == nil {
		return nil
	}
	e, err := infrapubsub.NewCloudEvent(infrapubsub.SourceNavigator, eventType, "users/"+userID, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if _, err := j.pub.PublishCloudEvent(ctx, shared.TopicNavigationEvents, e); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

var _ navigation.Journal = (*Journal)(nil)
