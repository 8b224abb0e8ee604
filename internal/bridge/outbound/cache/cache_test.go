package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCache(rdb, instrument.NewNoop()), rdb
}

func TestCache_Pending(t *testing.T) {
	c, rdb := newTestCache(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	_, err := c.GetPending(ctx, "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	first := entity.PendingEnrollment{
		AccountID:        "alice",
		VerificationHash: "h1",
		Secret:           []byte{0, 1, 2, 255},
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Minute),
	}
	require.NoError(t, c.PutPending(ctx, first))

	got, err := c.GetPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.Secret, got.Secret)
	assert.Equal(t, "h1", got.VerificationHash)
	assert.True(t, first.ExpiresAt.Equal(got.ExpiresAt))

	ttl, err := rdb.PTTL(ctx, key("alice")).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	second := first
	second.VerificationHash = "h2"
	require.NoError(t, c.PutPending(ctx, second))

	assert.ErrorIs(t, c.DeletePending(ctx, "alice", "h1"), goerror.ErrNotFound)
	require.NoError(t, c.DeletePending(ctx, "alice", "h2"))

	_, err = c.GetPending(ctx, "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
