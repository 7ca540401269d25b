package publishers

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub/pstest"
)

func TestGCPPubSubPublisherPublishes(t *testing.T) {
	// In-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:   "pubsub",
		Type: TypeGCPPubSub,
		GCPPubSub: &GCPPubSubPublisherConfig{
			ProjectID: "test-project",
			Topic:     "stations",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	gcp := pub.(*gcpPubSubPublisher)
	defer gcp.Close()

	if _, err := gcp.client.CreateTopic(ctx, "stations"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	evt := testEvent()
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["feed_id"] != "jazz" {
		t.Fatalf("unexpected attributes: %v", msgs[0].Attributes)
	}
	var got struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msgs[0].Data, &got); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.ID != evt.ID.String() {
		t.Fatalf("expected event id %s, got %s", evt.ID, got.ID)
	}
}

func TestGCPPubSubPublisherOrderedByFeed(t *testing.T) {
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	pub, err := newGCPPubSubPublisher(ctx, PublisherConfig{
		ID:   "pubsub",
		Type: TypeGCPPubSub,
		GCPPubSub: &GCPPubSubPublisherConfig{
			ProjectID: "test-project",
			Topic:     "ordered-stations",
			Ordered:   true,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newGCPPubSubPublisher: %v", err)
	}
	gcp := pub.(*gcpPubSubPublisher)
	defer gcp.Close()

	if _, err := gcp.client.CreateTopic(ctx, "ordered-stations"); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := pub.Publish(ctx, testEvent()); err != nil {
			t.Fatalf("Publish #%d: %v", i, err)
		}
	}

	msgs := server.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.OrderingKey != "jazz" {
			t.Fatalf("expected ordering key jazz, got %q", m.OrderingKey)
		}
	}
}
