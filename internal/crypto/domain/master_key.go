package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
)

// MasterKeySize is the required master key length in bytes (256 bits).
const MasterKeySize = 32

// MasterKey is the root key of the envelope encryption hierarchy. It is used
// only to wrap and unwrap data keys, never to encrypt field payloads directly.
// There is exactly one master key per deployment; it is supplied externally
// (environment variable or a KMS) rather than managed by this system.
type MasterKey struct {
	Key []byte
}

// KMSKeeper decrypts ciphertext through an external key management service.
// *gocloud.dev/secrets.Keeper satisfies this interface.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// NewMasterKey validates raw key material and wraps it as a MasterKey.
// Returns ErrInvalidMasterKey unless the key is exactly 32 bytes.
func NewMasterKey(key []byte) (*MasterKey, error) {
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf(
			"%w: must be %d bytes, got %d", ErrInvalidMasterKey, MasterKeySize, len(key),
		)
	}
	return &MasterKey{Key: key}, nil
}

// Close zeroes the key material. The master key must not be used afterwards.
func (m *MasterKey) Close() {
	Zero(m.Key)
	m.Key = nil
}

// LoadMasterKeyFromEnv loads the master key from the MASTER_KEY environment
// variable, which must hold the 32-byte key base64-encoded with standard
// encoding. The decoded temporary buffer is owned by the returned MasterKey.
//
// Returns ErrMasterKeyNotSet when the variable is absent and
// ErrInvalidMasterKey when decoding fails or the size is wrong.
func LoadMasterKeyFromEnv() (*MasterKey, error) {
	raw := os.Getenv("MASTER_KEY")
	if raw == "" {
		return nil, ErrMasterKeyNotSet
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrInvalidMasterKey, err)
	}

	return NewMasterKey(key)
}

// LoadMasterKeyFromKeeper decrypts a wrapped master key through a KMS keeper.
// The ciphertext is expected base64-encoded, matching how it is stored in
// configuration (MASTER_KEY_CIPHERTEXT).
func LoadMasterKeyFromKeeper(ctx context.Context, keeper KMSKeeper, ciphertextB64 string) (*MasterKey, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 ciphertext: %v", ErrInvalidMasterKey, err)
	}

	key, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt master key via KMS: %w", err)
	}

	return NewMasterKey(key)
}
