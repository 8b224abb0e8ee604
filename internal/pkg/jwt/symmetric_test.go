package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uluru/fbtotp/internal/pkg/clock"
	"github.com/uluru/fbtotp/internal/pkg/uid"
)

func newTestJWT(t *testing.T, clk *clock.Fake) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("s", 64)),
		Issuer:    "fbtotp",
		Audiences: []string{"app"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	return j
}

func TestSymmetric_RoundTrip(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	j := newTestJWT(t, clk)

	tok, err := j.Generate("acc-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID())
	assert.Equal(t, "alice@example.com", claims.Email)

	clk.Advance(2 * time.Hour)
	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_Rejects(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)

	clk := clock.NewFake(time.Now())
	j := newTestJWT(t, clk)

	_, err = j.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewHS512(Config{
		Secret: []byte(strings.Repeat("x", 64)), Issuer: "fbtotp", Audiences: []string{"app"},
		TTL: time.Hour, Clock: clk, UUID: uid.NewUUID(),
	})
	require.NoError(t, err)
	tok, err := other.Generate("acc-1", "")
	require.NoError(t, err)

	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
