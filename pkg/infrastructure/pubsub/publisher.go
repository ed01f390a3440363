package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"
)

// PubSubAdapter publishes CloudEvents in structured mode to Google Cloud
// Pub/Sub. The type, source and subject are copied into message attributes
// so subscriptions can filter on them.
type PubSubAdapter struct {
	Client *pubsub.Client
}

func (a *PubSubAdapter) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	data, attrs, err := encodeEvent(e)
	if err != nil {
		return "", err
	}

	topic := a.Client.Topic(topicID)
	res := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s to %s: %w", e.Type(), topicID, err)
	}
	return id, nil
}

func encodeEvent(e event.Event) ([]byte, map[string]string, error) {
	data, err := e.MarshalJSON()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal cloudevent: %w", err)
	}
	attrs := map[string]string{
		AttributeEventType:   e.Type(),
		AttributeEventSource: e.Source(),
		"content-type":       ContentTypeCloudEventV1,
	}
	if s := e.Subject(); s != "" {
		attrs[AttributeEventSubject] = s
	}
	return data, attrs, nil
}

// LogPublisher is a mock publisher for local development
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	data, _, err := encodeEvent(e)
	if err != nil {
		return "", err
	}
	logger.Info("[LogPublisher] MOCK PUBLISH", "topic", topicID, "type", e.Type(), "payload", string(data))
	return "mock-msg-" + e.ID(), nil
}
