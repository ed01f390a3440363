package mocks

import (
	"context"
	"sync"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	GetUserFunc                 func(ctx context.Context, id string) (*types.UserRecord, error)
	AddDeviceTokenFunc          func(ctx context.Context, userID, token string) error
	RemoveDeviceTokensFunc      func(ctx context.Context, userID string, tokens []string) error
	SetNavigationSessionFunc    func(ctx context.Context, session *types.NavigationSession) error
	UpdateNavigationSessionFunc func(ctx context.Context, userID, sessionID string, data map[string]interface{}) error
	GetNavigationSessionFunc    func(ctx context.Context, userID, sessionID string) (*types.NavigationSession, error)
}

func (m *MockDatabase) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, shared.ErrNotFound
}
func (m *MockDatabase) AddDeviceToken(ctx context.Context, userID, token string) error {
	if m.AddDeviceTokenFunc != nil {
		return m.AddDeviceTokenFunc(ctx, userID, token)
	}
	return nil
}
func (m *MockDatabase) RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	if m.RemoveDeviceTokensFunc != nil {
		return m.RemoveDeviceTokensFunc(ctx, userID, tokens)
	}
	return nil
}
func (m *MockDatabase) SetNavigationSession(ctx context.Context, session *types.NavigationSession) error {
	if m.SetNavigationSessionFunc != nil {
		return m.SetNavigationSessionFunc(ctx, session)
	}
	return nil
}
func (m *MockDatabase) UpdateNavigationSession(ctx context.Context, userID, sessionID string, data map[string]interface{}) error {
	if m.UpdateNavigationSessionFunc != nil {
		return m.UpdateNavigationSessionFunc(ctx, userID, sessionID, data)
	}
	return nil
}
func (m *MockDatabase) GetNavigationSession(ctx context.Context, userID, sessionID string) (*types.NavigationSession, error) {
	if m.GetNavigationSessionFunc != nil {
		return m.GetNavigationSessionFunc(ctx, userID, sessionID)
	}
	return nil, shared.ErrNotFound
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}
func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

// --- Mock Notifications ---
type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}

// --- In-memory blob store ---

// MemoryBlobStore keeps written objects keyed by bucket/object.
type MemoryBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func (m *MemoryBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
	}
	m.Objects[bucket+"/"+object] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[bucket+"/"+object]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return data, nil
}

func (m *MemoryBlobStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	return keys
}
