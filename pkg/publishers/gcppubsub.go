package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type gcpPubSubPublisher struct {
	id     string
	typ    string
	client *pubsub.Client
	topic  *pubsub.Topic
	// ordered publishes with the feed as ordering key.
	ordered bool
	log     Logger
}

// newGCPPubSubPublisher connects to the configured topic. PUBSUB_EMULATOR_HOST
// is honoured by the client library.
func newGCPPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.GCPPubSub == nil {
		return nil, fmt.Errorf("publisher %q missing gcp_pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.GCPPubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPPubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.GCPPubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.GCPPubSub.Topic)
	topic.EnableMessageOrdering = cfg.GCPPubSub.Ordered

	return &gcpPubSubPublisher{
		id:      cfg.ID,
		typ:     TypeGCPPubSub,
		client:  client,
		topic:   topic,
		ordered: cfg.GCPPubSub.Ordered,
		log:     ensureLogger(log),
	}, nil
}

func (g *gcpPubSubPublisher) ID() string   { return g.id }
func (g *gcpPubSubPublisher) Type() string { return g.typ }

// Publish sends the event and waits for the server to acknowledge it.
func (g *gcpPubSubPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.encode()
	if err != nil {
		return err
	}

	msg := &pubsub.Message{
		Data:       payload,
		Attributes: evt.attributes(),
	}
	if g.ordered {
		msg.OrderingKey = evt.groupKey()
	}

	serverID, err := g.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if g.ordered {
			// A failed ordered publish pauses the key until resumed.
			g.topic.ResumePublish(msg.OrderingKey)
		}
		g.log.ErrorObj("pubsub publisher send failed", "publisher_pubsub_error", deliveryFields(g.id, evt, err))
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	fields := deliveryFields(g.id, evt, nil)
	fields["message_id"] = serverID
	g.log.DebugObj("pubsub publisher delivered event", "publisher_pubsub_delivery", fields)
	return nil
}

// Close flushes pending messages and closes the client.
func (g *gcpPubSubPublisher) Close() error {
	g.topic.Stop()
	return g.client.Close()
}
