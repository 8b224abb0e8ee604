package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	p, err := NewFromDriver(ctx, "", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Noop{}, p)

	_, err = NewFromDriver(ctx, "rabbit", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, DriverNSQ, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNSQProducerAddrRequired)

	_, err = NewFromDriver(ctx, DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestNoop(t *testing.T) {
	n := NewNoop()

	res, err := n.Publish(context.Background(), "bridge.totp.events", Message{Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "bridge.totp.events", res.Topic)

	_, err = n.Publish(context.Background(), "", Message{})
	assert.ErrorIs(t, err, ErrTopicRequired)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Publish(ctx, "t", Message{})
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, n.Close())
}

func TestKafkaLifecycle(t *testing.T) {
	k, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:1"}})
	require.NoError(t, err)

	w1, err := k.writer("a")
	require.NoError(t, err)
	w2, err := k.writer("a")
	require.NoError(t, err)
	assert.Same(t, w1, w2)

	require.NoError(t, k.Close())
	_, err = k.Publish(context.Background(), "a", Message{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, k.Close())
}
