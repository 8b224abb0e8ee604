package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces keyed digests.
type Hasher interface {
	Hash(value string) string
	Verify(digest, value string) bool
}

// HMACSHA256 implements Hasher with HMAC-SHA256, hex encoded.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 returns a hasher keyed with secret.
func NewHMACSHA256(secret []byte) *HMACSHA256 {
	return &HMACSHA256{secret: secret}
}

// Hash returns the hex encoded digest of value.
func (s *HMACSHA256) Hash(value string) string {
	return hex.EncodeToString(s.sum(value))
}

// Verify reports whether digest was produced from value.
func (s *HMACSHA256) Verify(digest, value string) bool {
	raw, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(raw, s.sum(value))
}

func (s *HMACSHA256) sum(value string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(value))
	return h.Sum(nil)
}
