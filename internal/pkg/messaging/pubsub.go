package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when a project id is required but missing.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID     string
	ClientOptions []option.ClientOption
	// Ordering enables message ordering by Message.Key.
	Ordering bool
}

// PubSub publishes to Google Pub/Sub topics.
type PubSub struct {
	client   *pubsub.Client
	ordering bool

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

// NewPubSub creates a Pub/Sub client for the project.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, ordering: cfg.Ordering, publishers: make(map[string]*pubsub.Publisher)}, nil
}

// Publish sends msg and waits for the server assigned id.
func (p *PubSub) Publish(ctx context.Context, topic string, msg Message) (PublishResult, error) {
	if err := checkPublish(ctx, topic); err != nil {
		return PublishResult{}, err
	}

	pub, err := p.publisher(topic)
	if err != nil {
		return PublishResult{}, err
	}

	pm := &pubsub.Message{Data: msg.Body, Attributes: msg.Headers}
	if p.ordering {
		pm.OrderingKey = msg.Key
	}

	id, err := pub.Publish(ctx, pm).Get(ctx)
	if err != nil {
		if p.ordering && msg.Key != "" {
			pub.ResumePublish(msg.Key)
		}
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Topic: topic, Timestamp: time.Now()}, nil
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	pub.EnableMessageOrdering = p.ordering
	p.publishers[topic] = pub
	return pub, nil
}

// Close stops publishers, flushing what is buffered, and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}
