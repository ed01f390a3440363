package shared

import (
	"context"
	"errors"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/wandermap/navigator/pkg/types"
)

// ErrNotFound is returned by Database lookups for missing documents.
var ErrNotFound = errors.New("not found")

// --- Persistence Interfaces ---

type Database interface {
	GetUser(ctx context.Context, id string) (*types.UserRecord, error)
	AddDeviceToken(ctx context.Context, userID, token string) error
	RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error

	// Navigation sessions (sub-collection of users)
	SetNavigationSession(ctx context.Context, session *types.NavigationSession) error
	UpdateNavigationSession(ctx context.Context, userID, sessionID string, data map[string]interface{}) error
	GetNavigationSession(ctx context.Context, userID, sessionID string) (*types.NavigationSession, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}
