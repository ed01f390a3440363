package notifications

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	shared "github.com/wandermap/navigator/pkg"
)

// multicastSender is the part of the messaging client the adapter uses.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FCMAdapter struct {
	client multicastSender
	db     shared.Database
	logger *slog.Logger
}

func NewFCMAdapter(ctx context.Context, app *firebase.App, db shared.Database, logger *slog.Logger) (*FCMAdapter, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return newFCMAdapter(client, db, logger), nil
}

func newFCMAdapter(client multicastSender, db shared.Database, logger *slog.Logger) *FCMAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FCMAdapter{client: client, db: db, logger: logger.With("component", "fcm")}
}

func (a *FCMAdapter) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if len(tokens) == 0 {
		a.logger.Debug("No tokens for user, skipping notification", "user_id", userID)
		return nil
	}

	a.logger.Info("Sending push notification", "user_id", userID, "token_count", len(tokens), "title", title)

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := a.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send multicast message: %w", err)
	}

	if response.FailureCount > 0 {
		a.logger.Warn("Some push notifications failed to send",
			"user_id", userID,
			"failure_count", response.FailureCount,
			"success_count", response.SuccessCount,
		)
		a.cleanupDeadTokens(ctx, userID, tokens, response.Responses)
	}

	return nil
}

// cleanupDeadTokens removes tokens FCM reports as no longer registered.
func (a *FCMAdapter) cleanupDeadTokens(ctx context.Context, userID string, tokens []string, responses []*messaging.SendResponse) {
	var dead []string
	for i, resp := range responses {
		if i >= len(tokens) {
			break
		}
		if resp != nil && resp.Error != nil && messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			dead = append(dead, tokens[i])
		}
	}

	if len(dead) == 0 || a.db == nil {
		return
	}

	a.logger.Info("Removing dead FCM tokens", "user_id", userID, "count", len(dead))
	if err := a.db.RemoveDeviceTokens(ctx, userID, dead); err != nil {
		a.logger.Error("Failed to remove dead FCM tokens", "user_id", userID, "error", err)
	}
}
