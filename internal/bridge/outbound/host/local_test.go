package host

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/bridge/outbound/memory"
	"github.com/uluru/fbtotp/internal/pkg/auth"
	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
	"github.com/uluru/fbtotp/internal/pkg/hash"
	"github.com/uluru/fbtotp/internal/pkg/instrument"
	"github.com/uluru/fbtotp/internal/pkg/jwt"
	"github.com/uluru/fbtotp/internal/pkg/mfa"
	"github.com/uluru/fbtotp/internal/pkg/otp"
	"github.com/uluru/fbtotp/internal/pkg/uid"
)

type fixedNumber int64

func (n fixedNumber) Generate() int64 { return int64(n) }

type fixedString string

func (s fixedString) Generate() string { return string(s) }

type fixture struct {
	local *Local
	store *memory.Store
	clk   *clock.Fake
	jwt   *jwt.Symmetric
	enc   *mfa.AESGCM
	totp  *otp.TOTP
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFake(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	j, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "fbtotp",
		Audiences: []string{"app"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	store := memory.NewStore(clk)
	enc := mfa.NewAESGCM(mfa.NewHKDFKey([]byte(strings.Repeat("m", 32)), nil))
	gen := otp.NewTOTP(30, 1)

	return &fixture{
		local: NewLocal(Dependency{
			Factors:    store,
			Pending:    store,
			JWT:        j,
			TOTP:       gen,
			Encryptor:  enc,
			HMAC:       hash.NewHMACSHA256([]byte("vid")),
			UID:        fixedNumber(42),
			OID:        fixedString("sess-1"),
			Clock:      clk,
			Instrument: instrument.NewNoop(),
		}),
		store: store,
		clk:   clk,
		jwt:   j,
		enc:   enc,
		totp:  gen,
	}
}

func (f *fixture) account(t *testing.T) (context.Context, entity.Account) {
	t.Helper()

	tok, err := f.jwt.Generate("alice", "alice@example.com")
	require.NoError(t, err)
	ctx := auth.WithToken(context.Background(), tok)

	acc, err := f.local.CurrentAccount(ctx)
	require.NoError(t, err)
	return ctx, *acc
}

func (f *fixture) pending(t *testing.T, ctx context.Context, acc entity.Account) *entity.TOTPSecret {
	t.Helper()

	sess, err := f.local.BeginSession(ctx, acc)
	require.NoError(t, err)
	sec, err := f.local.GenerateSecret(ctx, *sess)
	require.NoError(t, err)
	return sec
}

func TestLocal_CurrentAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.local.CurrentAccount(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoCurrentUser)

	_, err = f.local.CurrentAccount(auth.WithToken(context.Background(), "garbage"))
	assert.ErrorIs(t, err, entity.ErrNoCurrentUser)

	_, acc := f.account(t)
	assert.Equal(t, "alice", acc.ID)
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.NotEmpty(t, acc.AccessToken)
}

func TestLocal_GenerateSecretStoresSealedState(t *testing.T) {
	f := newFixture(t)
	ctx, acc := f.account(t)

	sec := f.pending(t, ctx, acc)
	assert.Equal(t, "sess-1", sec.VerificationID)
	assert.Equal(t, f.clk.Now().Add(DefaultPendingTTL), sec.ExpiresAt)

	p, err := f.store.GetPending(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "sess-1", p.VerificationHash)
	assert.NotContains(t, string(p.Secret), sec.Secret)

	plain, err := f.enc.Decrypt(p.Secret, mfa.Scope{AccountID: "alice", Purpose: mfa.PurposePendingSecret})
	require.NoError(t, err)
	assert.Equal(t, sec.Secret, string(plain))

	got, err := f.local.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Empty(t, got.AccessToken)
}

func TestLocal_EnrollFactor(t *testing.T) {
	f := newFixture(t)
	ctx, acc := f.account(t)

	_, err := f.local.EnrollFactor(ctx, acc, entity.TOTPCredential{Code: "123456"}, "TOTP")
	require.ErrorIs(t, err, entity.ErrNoPendingEnrollment)

	sec := f.pending(t, ctx, acc)
	code, err := f.totp.Code(sec.Secret, f.clk.Now())
	require.NoError(t, err)

	_, err = f.local.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: "other", Code: code}, "TOTP")
	require.ErrorIs(t, err, entity.ErrNoPendingEnrollment)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	_, err = f.local.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: sec.VerificationID, Code: wrong}, "TOTP")
	require.ErrorIs(t, err, entity.ErrInvalidCode)

	fac, err := f.local.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: sec.VerificationID, Code: code}, "Phone app")
	require.NoError(t, err)
	assert.Equal(t, "42", fac.ID)
	assert.Equal(t, entity.FactorKindTOTP, fac.Kind)
	assert.Equal(t, "Phone app", fac.DisplayName)

	_, err = f.store.GetPending(ctx, "alice")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	stored, err := f.store.ListFactors(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	plain, err := f.enc.Decrypt(stored[0].Secret, mfa.Scope{AccountID: "alice", Purpose: mfa.PurposeTOTPSecret})
	require.NoError(t, err)
	assert.Equal(t, sec.Secret, string(plain))

	factors, err := f.local.ListFactors(ctx, acc)
	require.NoError(t, err)
	require.Len(t, factors, 1)

	require.NoError(t, f.local.UnenrollFactor(ctx, acc, "42"))
	assert.ErrorIs(t, f.local.UnenrollFactor(ctx, acc, "42"), goerror.ErrNotFound)
}

func TestLocal_PendingExpires(t *testing.T) {
	f := newFixture(t)
	ctx, acc := f.account(t)

	sec := f.pending(t, ctx, acc)
	f.clk.Advance(DefaultPendingTTL)
	code, err := f.totp.Code(sec.Secret, f.clk.Now())
	require.NoError(t, err)

	_, err = f.local.EnrollFactor(ctx, acc, entity.TOTPCredential{VerificationID: sec.VerificationID, Code: code}, "TOTP")
	assert.ErrorIs(t, err, entity.ErrNoPendingEnrollment)
}
