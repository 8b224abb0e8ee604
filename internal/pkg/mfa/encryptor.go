// Package mfa seals multi-factor secrets at rest.
package mfa

// Encryptor seals and opens secrets bound to a Scope.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider returns the 32 byte AES key for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
