package database

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	storage "github.com/wandermap/navigator/pkg/storage/firestore"
	"github.com/wandermap/navigator/pkg/types"
)

// FirestoreAdapter implements shared.Database on the typed storage client.
type FirestoreAdapter struct {
	storage *storage.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{storage: storage.NewClient(client)}
}

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	return a.storage.Users().Doc(id).Get(ctx)
}

// AddDeviceToken registers an FCM token, creating the user document on the
// first registration.
func (a *FirestoreAdapter) AddDeviceToken(ctx context.Context, userID, token string) error {
	doc := a.storage.Users().Doc(userID)
	if err := doc.ArrayUnion(ctx, "fcm_tokens", token); err != nil {
		return err
	}
	return doc.Update(ctx, map[string]interface{}{
		"user_id":    userID,
		"updated_at": time.Now().UTC(),
	})
}

func (a *FirestoreAdapter) RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	values := make([]interface{}, len(tokens))
	for i, t := range tokens {
		values[i] = t
	}
	return a.storage.Users().Doc(userID).ArrayRemove(ctx, "fcm_tokens", values...)
}

func (a *FirestoreAdapter) SetNavigationSession(ctx context.Context, session *types.NavigationSession) error {
	return a.storage.NavigationSessions(session.UserID).Doc(session.SessionID).Set(ctx, session)
}

func (a *FirestoreAdapter) UpdateNavigationSession(ctx context.Context, userID, sessionID string, data map[string]interface{}) error {
	return a.storage.NavigationSessions(userID).Doc(sessionID).Update(ctx, data)
}

func (a *FirestoreAdapter) GetNavigationSession(ctx context.Context, userID, sessionID string) (*types.NavigationSession, error) {
	return a.storage.NavigationSessions(userID).Doc(sessionID).Get(ctx)
}
