package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/config"

	"cloud.google.com/go/pubsub"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// TaskEvent is the audit record published when a generation task reaches a
// terminal state. Consumers (billing reports, analytics) are downstream and
// out of process; publishing is best effort.
type TaskEvent struct {
	UserID       int64     `json:"user_id"`
	Category     string    `json:"category"`
	RemoteTaskID string    `json:"remote_task_id,omitempty"`
	State        string    `json:"state"`
	Attempts     int       `json:"attempts"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Encode marshals the event for publishing.
func (e TaskEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}
