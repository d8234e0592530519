// Package service provides cryptographic services for envelope encryption.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) and the envelope
// codec used to protect persisted field values and wrap data keys.
package service

import (
	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	// The authentication tag is appended to the ciphertext.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// Overhead returns the tag length in bytes appended by Encrypt.
	Overhead() int
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// EnvelopeCipher defines the envelope encryption operations used by the field
// encryption and key rotation flows.
type EnvelopeCipher interface {
	// Encrypt encrypts a field payload under a data key and serializes the
	// versioned ciphertext envelope.
	Encrypt(plaintext, dataKey []byte, keyVersion uint) (string, error)

	// Decrypt parses an envelope and decrypts its payload with the data key.
	Decrypt(envelope string, dataKey []byte) ([]byte, error)

	// WrapKey encrypts a raw 32-byte data key under the master key.
	WrapKey(rawKey []byte) (string, error)

	// UnwrapKey recovers a raw data key from its wrapped form.
	UnwrapKey(wrapped string) ([]byte, error)

	// GenerateDataKey mints a fresh random 32-byte data key and returns it
	// together with its wrapped form.
	GenerateDataKey() (rawKey []byte, wrapped string, err error)
}
