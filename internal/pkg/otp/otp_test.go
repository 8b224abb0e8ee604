package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioningURI(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		issuer  string
		account string
		want    string
	}{
		{
			name:    "email account",
			secret:  "JBSWY3DPEHPK3PXP",
			issuer:  "Acme",
			account: "alice@example.com",
			want:    "otpauth://totp/Acme:alice%40example.com?secret=JBSWY3DPEHPK3PXP&issuer=Acme&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "spaces are plus encoded",
			secret:  "JBSWY3DPEHPK3PXP",
			issuer:  "My Company",
			account: "John Doe",
			want:    "otpauth://totp/My+Company:John+Doe?secret=JBSWY3DPEHPK3PXP&issuer=My+Company&algorithm=SHA1&digits=6&period=30",
		},
		{
			name:    "placeholder account",
			secret:  "ABC",
			issuer:  "FirebaseTOTP",
			account: "user",
			want:    "otpauth://totp/FirebaseTOTP:user?secret=ABC&issuer=FirebaseTOTP&algorithm=SHA1&digits=6&period=30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProvisioningURI(tt.secret, tt.issuer, tt.account))
		})
	}
}

func TestParseURI_RoundTrip(t *testing.T) {
	accounts := []string{"alice@example.com", "John Doe", "a+b:c/d", "user"}
	issuers := []string{"Acme", "My Company", "FirebaseTOTP", "R&D"}

	for _, account := range accounts {
		for _, issuer := range issuers {
			p, err := ParseURI(ProvisioningURI("JBSWY3DPEHPK3PXP", issuer, account))
			require.NoError(t, err, "%s / %s", issuer, account)
			assert.Equal(t, account, p.AccountName)
			assert.Equal(t, issuer, p.Issuer)
			assert.Equal(t, "JBSWY3DPEHPK3PXP", p.Secret)
			assert.Equal(t, "SHA1", p.Algorithm)
			assert.Equal(t, 6, p.Digits)
			assert.Equal(t, 30, p.Period)
		}
	}
}

func TestParseURI_Rejects(t *testing.T) {
	for _, raw := range []string{
		"https://example.com",
		"otpauth://hotp/Acme:a?secret=X",
		"otpauth://totp/Acme:a",
		"otpauth://totp/?secret=X",
		"otpauth://totp/Acme:a?secret=X&digits=six",
	} {
		_, err := ParseURI(raw)
		assert.ErrorIs(t, err, ErrMalformedURI, raw)
	}
}

func TestTOTP_GenerateAndValidate(t *testing.T) {
	g := NewTOTP(0, 0)
	secret, err := g.NewSecret("Acme", "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, secret, 32)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	code, err := g.Code(secret, at)
	require.NoError(t, err)
	assert.True(t, IsWellFormedCode(code))

	assert.True(t, g.Validate(code, secret, at))
	assert.True(t, g.Validate(code, secret, at.Add(30*time.Second)))
	assert.False(t, g.Validate(code, secret, at.Add(5*time.Minute)))
	assert.False(t, g.Validate(" "+code, secret, at))
	assert.False(t, g.Validate(code[:5], secret, at))

	_, err = g.Code("", at)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestIsWellFormedCode(t *testing.T) {
	assert.True(t, IsWellFormedCode("000000"))
	assert.True(t, IsWellFormedCode("123456"))
	assert.False(t, IsWellFormedCode("12345"))
	assert.False(t, IsWellFormedCode("1234567"))
	assert.False(t, IsWellFormedCode("12a456"))
	assert.False(t, IsWellFormedCode("١٢٣٤٥٦"))
	assert.False(t, IsWellFormedCode(""))
}
