package messaging

import (
	"context"
	"time"
)

// Noop accepts and drops every message.
type Noop struct{}

// NewNoop returns a Noop publisher.
func NewNoop() *Noop { return &Noop{} }

// Publish validates the call and drops the message.
func (*Noop) Publish(ctx context.Context, topic string, _ Message) (PublishResult, error) {
	if err := checkPublish(ctx, topic); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: topic, Timestamp: time.Now()}, nil
}

// Close is a no-op.
func (*Noop) Close() error { return nil }
