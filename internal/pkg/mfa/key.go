package mfa

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrMissingKey indicates an empty master key.
var ErrMissingKey = errors.New("mfa: missing master key")

// StaticKey hands out the same key for every scope. Local development only.
type StaticKey []byte

// Key returns a copy of the key.
func (k StaticKey) Key(Scope) ([]byte, error) {
	if len(k) == 0 {
		return nil, ErrMissingKey
	}
	return append([]byte(nil), k...), nil
}

// HKDFKey derives a distinct key per scope from one master key.
type HKDFKey struct {
	master []byte
	salt   []byte
}

// NewHKDFKey returns a derived-key provider. The salt may be empty.
func NewHKDFKey(master, salt []byte) *HKDFKey {
	return &HKDFKey{master: master, salt: salt}
}

// Key derives the AES-256 key for scope.
func (p *HKDFKey) Key(scope Scope) ([]byte, error) {
	if len(p.master) == 0 {
		return nil, ErrMissingKey
	}

	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, p.master, p.salt, []byte(scope.canonical()))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
