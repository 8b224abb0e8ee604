package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

func TestStore_Factors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(clock.NewFake(time.Unix(1_700_000_000, 0)))

	f := entity.StoredFactor{Factor: entity.Factor{ID: "1", AccountID: "alice", Kind: entity.FactorKindTOTP}}
	require.NoError(t, s.CreateFactor(ctx, f))

	f.ID = "2"
	assert.ErrorIs(t, s.CreateFactor(ctx, f), goerror.ErrConflict)

	got, err := s.ListFactors(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	assert.ErrorIs(t, s.DeleteFactor(ctx, "alice", "2"), goerror.ErrNotFound)
	require.NoError(t, s.DeleteFactor(ctx, "alice", "1"))

	got, err = s.ListFactors(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Pending(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	s := NewStore(clk)

	require.NoError(t, s.PutPending(ctx, entity.PendingEnrollment{
		AccountID: "alice", VerificationHash: "h1", ExpiresAt: clk.Now().Add(time.Minute),
	}))
	require.NoError(t, s.PutPending(ctx, entity.PendingEnrollment{
		AccountID: "alice", VerificationHash: "h2", ExpiresAt: clk.Now().Add(time.Minute),
	}))

	p, err := s.GetPending(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h2", p.VerificationHash)

	assert.ErrorIs(t, s.DeletePending(ctx, "alice", "h1"), goerror.ErrNotFound)

	clk.Advance(2 * time.Minute)
	_, err = s.GetPending(ctx, "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestStore_Accounts(t *testing.T) {
	ctx := context.Background()
	s := NewStore(clock.New())

	_, err := s.GetAccount(ctx, "bob")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, s.UpsertAccount(ctx, entity.Account{ID: "bob", Email: "bob@example.com", AccessToken: "tok"}))

	acc, err := s.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", acc.Email)
	assert.Empty(t, acc.AccessToken)
}
