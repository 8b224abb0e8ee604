// Package cache keeps pending enrollments in Redis. Each account has one
// hash that expires with the enrollment.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

const (
	keyPrefix = "fbtotp:totp:pending:"

	fieldHash      = "vh"
	fieldSecret    = "secret"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// deleteIfHash removes the register only while it still belongs to the same
// enrollment attempt, so a newer enroll is never cleared by an older verify.
var deleteIfHash = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type Cache struct {
	conn *redis.Client
	ins  instrument.Instrumentation
}

func NewCache(conn *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{conn: conn, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("bridge.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func key(accountID string) string {
	return keyPrefix + accountID
}

// PutPending replaces the account's register. Last writer wins.
func (c *Cache) PutPending(ctx context.Context, p entity.PendingEnrollment) (err error) {
	ctx, span := c.startSpan(ctx, "PutPending")
	defer func() { c.endSpan(span, err) }()

	k := key(p.AccountID)
	_, err = c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			fieldHash, p.VerificationHash,
			fieldSecret, p.Secret,
			fieldCreatedAt, p.CreatedAt.UnixMilli(),
			fieldExpiresAt, p.ExpiresAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, k, p.ExpiresAt)
		return nil
	})
	return err
}

func (c *Cache) GetPending(ctx context.Context, accountID string) (p *entity.PendingEnrollment, err error) {
	ctx, span := c.startSpan(ctx, "GetPending")
	defer func() { c.endSpan(span, err) }()

	vals, err := c.conn.HGetAll(ctx, key(accountID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 || vals[fieldHash] == "" {
		return nil, goerror.ErrNotFound
	}

	createdAt, err := strconv.ParseInt(vals[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, err
	}
	expiresAt, err := strconv.ParseInt(vals[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, err
	}

	return &entity.PendingEnrollment{
		AccountID:        accountID,
		VerificationHash: vals[fieldHash],
		Secret:           []byte(vals[fieldSecret]),
		CreatedAt:        time.UnixMilli(createdAt),
		ExpiresAt:        time.UnixMilli(expiresAt),
	}, nil
}

func (c *Cache) DeletePending(ctx context.Context, accountID, verificationHash string) (err error) {
	ctx, span := c.startSpan(ctx, "DeletePending")
	defer func() { c.endSpan(span, err) }()

	n, err := deleteIfHash.Run(ctx, c.conn, []string{key(accountID)}, fieldHash, verificationHash).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
