package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sealed layout: uint16 version | 12 byte nonce | ciphertext+tag.
const (
	sealVersion uint16 = 1
	nonceSize          = 12
	headerSize         = 2 + nonceSize
	keySize            = 32
)

var (
	// ErrNotConfigured indicates a missing key provider.
	ErrNotConfigured = errors.New("mfa: encryptor not configured")
	// ErrEmptyPlaintext indicates nothing to seal.
	ErrEmptyPlaintext = errors.New("mfa: plaintext is empty")
	// ErrKeyLength indicates a key that is not AES-256 sized.
	ErrKeyLength = errors.New("mfa: invalid key length")
	// ErrShortCiphertext indicates a truncated sealed value.
	ErrShortCiphertext = errors.New("mfa: ciphertext too short")
	// ErrVersion indicates a sealed value written by an unknown layout.
	ErrVersion = errors.New("mfa: unsupported ciphertext version")
	// ErrOpen indicates authentication failure while opening.
	ErrOpen = errors.New("mfa: decrypt failed")
)

// AESGCM implements Encryptor with AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM returns an AES-256-GCM encryptor drawing keys from keys.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

// Encrypt seals plaintext, binding it to scope.
func (e *AESGCM) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	aead, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+aead.Overhead())
	binary.BigEndian.PutUint16(out, sealVersion)
	if _, err := io.ReadFull(rand.Reader, out[2:headerSize]); err != nil {
		return nil, fmt.Errorf("mfa: nonce: %w", err)
	}

	return aead.Seal(out, out[2:headerSize], plaintext, scopeAAD(scope)), nil
}

// Decrypt opens a value sealed by Encrypt under the same scope.
func (e *AESGCM) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerSize {
		return nil, ErrShortCiphertext
	}
	if v := binary.BigEndian.Uint16(ciphertext); v != sealVersion {
		return nil, fmt.Errorf("mfa: version %d: %w", v, ErrVersion)
	}

	aead, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	plain, err := aead.Open(nil, ciphertext[2:headerSize], ciphertext[headerSize:], scopeAAD(scope))
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}

func (e *AESGCM) aead(scope Scope) (cipher.AEAD, error) {
	if e == nil || e.keys == nil {
		return nil, ErrNotConfigured
	}

	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("mfa: key provider: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("mfa: key is %d bytes: %w", len(key), ErrKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

func scopeAAD(s Scope) []byte {
	sum := sha256.Sum256([]byte(s.canonical()))
	return sum[:]
}
