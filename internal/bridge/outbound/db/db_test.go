package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("fbtotp"),
		postgres.WithUsername("fbtotp"),
		postgres.WithPassword("fbtotp"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := NewDB(pool, instrument.NewNoop())
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.EnsureSchema(ctx))

	return db
}

func TestDB_Accounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetAccount(ctx, "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, db.UpsertAccount(ctx, entity.Account{ID: "alice", Email: "old@example.com"}))
	require.NoError(t, db.UpsertAccount(ctx, entity.Account{ID: "alice", Email: "alice@example.com"}))

	acc, err := db.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", acc.Email)
}

func TestDB_Factors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	f := entity.StoredFactor{
		Factor: entity.Factor{
			ID:          "1001",
			AccountID:   "alice",
			Kind:        entity.FactorKindTOTP,
			DisplayName: "TOTP",
			EnrolledAt:  now,
		},
		Secret:     []byte{1, 2, 3},
		KeyVersion: 1,
	}

	assert.ErrorIs(t, db.CreateFactor(ctx, f), goerror.ErrNotFound, "account must exist")

	require.NoError(t, db.UpsertAccount(ctx, entity.Account{ID: "alice"}))
	require.NoError(t, db.CreateFactor(ctx, f))

	dup := f
	dup.ID = "1002"
	assert.ErrorIs(t, db.CreateFactor(ctx, dup), goerror.ErrConflict)

	list, err := db.ListFactors(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1001", list[0].ID)
	assert.Equal(t, entity.FactorKindTOTP, list[0].Kind)
	assert.Equal(t, []byte{1, 2, 3}, list[0].Secret)
	assert.True(t, now.Equal(list[0].EnrolledAt))

	assert.ErrorIs(t, db.DeleteFactor(ctx, "bob", "1001"), goerror.ErrNotFound)
	assert.ErrorIs(t, db.DeleteFactor(ctx, "alice", "not-a-number"), goerror.ErrNotFound)
	require.NoError(t, db.DeleteFactor(ctx, "alice", "1001"))
	assert.ErrorIs(t, db.DeleteFactor(ctx, "alice", "1001"), goerror.ErrNotFound)
}
