package otp

import (
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrEmptySecret is returned when a code is requested for an empty secret.
var ErrEmptySecret = errors.New("otp: secret is empty")

// Generator issues and checks TOTP codes.
type Generator interface {
	// NewSecret returns a fresh base32 encoded shared secret.
	NewSecret(issuer, accountName string) (string, error)
	// Validate reports whether code is acceptable for secret at the given time.
	Validate(code, secret string, at time.Time) bool
	// Code returns the code for secret at the given time.
	Code(secret string, at time.Time) (string, error)
}

// TOTP implements Generator with SHA1, six digits and a configurable period.
type TOTP struct {
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP builds a TOTP. A zero period falls back to 30 seconds and a zero
// skew to one step either side.
func NewTOTP(period, skew uint) *TOTP {
	if period == 0 {
		period = DefaultPeriod
	}
	if skew == 0 {
		skew = 1
	}

	return &TOTP{period: period, skew: skew, digits: otp.DigitsSix}
}

// NewSecret returns a 160-bit secret, base32 encoded without padding.
func (t *TOTP) NewSecret(issuer, accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      t.period,
		SecretSize:  20,
		Digits:      t.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.Secret(), nil
}

// Validate reports whether code is acceptable for secret at the given time.
// Anything but six ASCII digits is rejected.
func (t *TOTP) Validate(code, secret string, at time.Time) bool {
	if !IsWellFormedCode(code) {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at, t.opts())
	return ok && err == nil
}

// Code returns the code for secret at the given time.
func (t *TOTP) Code(secret string, at time.Time) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	return totp.GenerateCodeCustom(secret, at, t.opts())
}

func (t *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    t.period,
		Skew:      t.skew,
		Digits:    t.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// IsWellFormedCode reports whether code is exactly six ASCII digits.
func IsWellFormedCode(code string) bool {
	if len(code) != DefaultDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
