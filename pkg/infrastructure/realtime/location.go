// Package realtime mirrors each user's latest position into the Firebase
// Realtime Database so other clients can follow it live.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"firebase.google.com/go/v4/db"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/geolocation"
)

// LocationRecord is the value stored at users/{uid}.
type LocationRecord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

func NewLocationRecord(s geolocation.Sample, now time.Time) LocationRecord {
	ts := s.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return LocationRecord{
		Latitude:  s.Latitude(),
		Longitude: s.Longitude(),
		Timestamp: ts.UnixMilli(),
	}
}

// Writer sets a value at a database path.
type Writer interface {
	Set(ctx context.Context, path string, v interface{}) error
}

type firebaseWriter struct {
	client *db.Client
}

func (w *firebaseWriter) Set(ctx context.Context, p string, v interface{}) error {
	return w.client.NewRef(p).Set(ctx, v)
}

type LocationSink struct {
	writer Writer
	root   string
	now    func() time.Time
	logger *slog.Logger
}

func NewLocationSink(client *db.Client, logger *slog.Logger) *LocationSink {
	return NewLocationSinkWithWriter(&firebaseWriter{client: client}, logger)
}

func NewLocationSinkWithWriter(w Writer, logger *slog.Logger) *LocationSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationSink{
		writer: w,
		root:   shared.RealtimeLocationsPath,
		now:    time.Now,
		logger: logger.With("component", "realtime"),
	}
}

// PublishLocation overwrites the user's node with the latest fix.
func (s *LocationSink) PublishLocation(ctx context.Context, userID string, sample geolocation.Sample) error {
	if err := shared.ValidateUserID(userID); err != nil {
		return fmt.Errorf("publish location: %w", err)
	}

	p := path.Join(s.root, userID)
	rec := NewLocationRecord(sample, s.now())
	if err := s.writer.Set(ctx, p, rec); err != nil {
		return fmt.Errorf("realtime set %s: %w", p, err)
	}

	s.logger.Debug("Location published", "path", p, "timestamp", rec.Timestamp)
	return nil
}

// LogLocationSink only logs; used when no database URL is configured.
type LogLocationSink struct {
	Logger *slog.Logger
}

func (l *LogLocationSink) PublishLocation(ctx context.Context, userID string, sample geolocation.Sample) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := NewLocationRecord(sample, time.Now())
	logger.Info("[LogLocationSink] MOCK SET",
		"path", path.Join(shared.RealtimeLocationsPath, userID),
		"latitude", rec.Latitude,
		"longitude", rec.Longitude,
		"timestamp", rec.Timestamp,
	)
	return nil
}
