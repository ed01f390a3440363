// Package notifications delivers navigation notifications to the user, on the
// live map when one is connected and by push otherwise.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	shared "github.com/wandermap/navigator/pkg"
	"github.com/wandermap/navigator/pkg/domain/navigation"
)

// ErrNotDelivered is returned by a channel that had no way to reach the user.
var ErrNotDelivered = errors.New("notification not delivered")

// PushNotifier sends notifications to the devices registered for a user.
type PushNotifier struct {
	DB      shared.Database
	Service shared.NotificationService
}

func (p *PushNotifier) Notify(ctx context.Context, userID string, n navigation.Notification) error {
	user, err := p.DB.GetUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}

	data := map[string]string{"variant": string(n.Variant), "kind": "navigation"}
	return p.Service.SendPushNotification(ctx, userID, n.Title, n.Description, user.FCMTokens, data)
}

// Toaster shows a notification on a live map.
type Toaster interface {
	Toast(n navigation.Notification)
	ClientCount() int
}

// ToastNotifier shows notifications on the user's connected maps.
type ToastNotifier struct {
	Lookup func(userID string) (Toaster, bool)
}

func (t *ToastNotifier) Notify(ctx context.Context, userID string, n navigation.Notification) error {
	toaster, ok := t.Lookup(userID)
	if !ok || toaster.ClientCount() == 0 {
		return ErrNotDelivered
	}
	toaster.Toast(n)
	return nil
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) Notify(ctx context.Context, userID string, n navigation.Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Notification", "user_id", userID, "title", n.Title, "description", n.Description, "variant", n.Variant)
	return nil
}

// Fanout delivers one notification to every channel. A failing channel does
// not stop the others; their errors are joined.
type Fanout []navigation.Notifier

func (f Fanout) Notify(ctx context.Context, userID string, n navigation.Notification) error {
	var errs []error
	for _, notifier := range f {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, userID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FirstAvailable delivers a notification over the first channel that reaches
// the user, so the user sees it once. Channels returning ErrNotDelivered or
// failing hand over to the next one.
type FirstAvailable []navigation.Notifier

func (f FirstAvailable) Notify(ctx context.Context, userID string, n navigation.Notification) error {
	var errs []error
	for _, notifier := range f {
		if notifier == nil {
			continue
		}
		err := notifier.Notify(ctx, userID, n)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotDelivered) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
