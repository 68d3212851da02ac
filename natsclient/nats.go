package natsclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"story-competition/models"
)

const subjectPrefix = "stories.competition."

type NatsClient struct {
	Conn *nats.Conn
}

func NewNatsClient(natsURL string) (*NatsClient, error) {
	nc, err := nats.Connect(natsURL, nats.Name("story-competition"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &NatsClient{Conn: nc}, nil
}

func (n *NatsClient) Close() {
	if n.Conn != nil {
		n.Conn.Close()
	}
}

func (n *NatsClient) Publish(subject string, data []byte) error {
	return n.Conn.Publish(subject, data)
}

func (n *NatsClient) Subscribe(subject string, handler func(*nats.Msg)) (*nats.Subscription, error) {
	return n.Conn.Subscribe(subject, handler)
}

// Subject maps an event type to its NATS subject.
func Subject(eventType string) string { return subjectPrefix + eventType }

// Notify publishes the event as JSON on its subject.
func (n *NatsClient) Notify(ctx context.Context, event models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	if err := n.Publish(Subject(event.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
