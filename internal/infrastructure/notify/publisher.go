package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"event-ticketing/internal/domain/event"
	"event-ticketing/internal/logger"

	"go.uber.org/zap"
)

// MessagePublisher is the part of the MQTT client the event publisher needs.
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// EventPublisher announces event lifecycle changes on
// <prefix>/<event id>/status.
type EventPublisher struct {
	client MessagePublisher
	prefix string
	qos    byte
}

func NewEventPublisher(client MessagePublisher, prefix string, qos byte) *EventPublisher {
	return &EventPublisher{client: client, prefix: prefix, qos: qos}
}

func (p *EventPublisher) PublishStatusChange(_ context.Context, change event.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode status change: %w", err)
	}

	topic := StatusTopic(p.prefix, change.EventID.String())
	if err := p.client.Publish(topic, p.qos, true, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	logger.Debug("Event status change published",
		zap.String("topic", topic),
		zap.String("status", string(change.To)),
	)
	return nil
}

func StatusTopic(prefix, eventID string) string {
	if prefix == "" {
		prefix = "events"
	}
	return prefix + "/" + eventID + "/status"
}

// NoopPublisher drops status changes when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStatusChange(context.Context, event.StatusChange) error {
	return nil
}
