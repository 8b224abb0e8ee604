package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("messaging: publisher closed")
	// ErrTopicRequired is returned when Publish gets an empty destination.
	ErrTopicRequired = errors.New("messaging: topic is required")
)

// Publisher sends messages to a destination (topic or subject).
type Publisher interface {
	io.Closer
	Publish(ctx context.Context, topic string, msg Message) (PublishResult, error)
}

// Message is a broker-agnostic outgoing message.
type Message struct {
	// Key is used for partitioning (Kafka) and ordering (Pub/Sub).
	Key string
	// Body is the payload.
	Body []byte
	// Headers travel as message headers or attributes, depending on the broker.
	Headers map[string]string
}

// PublishResult carries what the broker reported back.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

func checkPublish(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}
