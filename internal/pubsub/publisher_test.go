package pubsub

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"app/internal/config"

	ps "cloud.google.com/go/pubsub"
)

func TestNewPublisherInvalidProject(t *testing.T) {
	cfg := &config.Config{GCPProjectID: ""}
	if _, err := NewPublisher(context.Background(), cfg); err == nil {
		t.Fatal("expected error when project ID is empty")
	}
}

func TestTaskEventEncoding(t *testing.T) {
	ev := TaskEvent{
		UserID:       42,
		Category:     "image",
		RemoteTaskID: "task-9",
		State:        "succeeded",
		Attempts:     3,
		OccurredAt:   time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	var decoded TaskEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if decoded.UserID != 42 || decoded.State != "succeeded" || decoded.Attempts != 3 {
		t.Fatalf("round-tripped event mismatch: %+v", decoded)
	}
}

func TestPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	cfg := &config.Config{GCPProjectID: "test-project"}
	pub, err := NewPublisher(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create PubSubPublisher: %v", err)
	}

	topicName := "task-events-test"
	topic, err := pub.client.CreateTopic(ctx, topicName)
	if err != nil {
		t.Fatalf("failed to create topic: %v", err)
	}
	sub, err := pub.client.CreateSubscription(ctx, "task-events-test-sub", ps.SubscriptionConfig{Topic: topic})
	if err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}

	payload, _ := TaskEvent{UserID: 1, Category: "video", State: "timed_out"}.Encode()
	msgID, err := pub.Publish(ctx, topicName, payload)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if msgID == "" {
		t.Fatal("expected non-empty message ID")
	}

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c := make(chan []byte, 1)
	go func() {
		sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			c <- m.Data
			m.Ack()
			cancel()
		})
	}()

	select {
	case data := <-c:
		var ev TaskEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("received payload is not a task event: %v", err)
		}
		if ev.State != "timed_out" {
			t.Fatalf("expected state timed_out, got %s", ev.State)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
