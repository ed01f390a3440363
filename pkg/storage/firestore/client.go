package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

func (c *Client) Users() *Collection[types.UserRecord] {
	return &Collection[types.UserRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers),
		ToFirestore:   UserToFirestore,
		FromFirestore: FirestoreToUser,
	}
}

// NavigationSessions are sub-collections of Users: users/{uid}/navigation_sessions/{id}
func (c *Client) NavigationSessions(userID string) *Collection[types.NavigationSession] {
	return &Collection[types.NavigationSession]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionNavigationSessions),
		ToFirestore:   NavigationSessionToFirestore,
		FromFirestore: FirestoreToNavigationSession,
	}
}
