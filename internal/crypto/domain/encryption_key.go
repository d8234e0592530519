// Package domain defines the core cryptographic domain models for envelope encryption.
//
// It implements a two-tier key hierarchy: Master Key → Data Key → Field Data.
// Data keys are wrapped (encrypted) under the master key and identified by a
// monotonically increasing version that is embedded in every ciphertext envelope,
// enabling key rotation without losing access to not-yet-migrated data.
// Supports AESGCM and ChaCha20 algorithms with 256-bit keys.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EncryptionKey represents a versioned data key used to encrypt field payloads.
// The raw key material is never stored; only WrappedKey (the key encrypted under
// the master key) is persisted. Keys are never deleted: deactivated keys are
// retained forever so envelopes written under old versions stay decryptable.
type EncryptionKey struct {
	ID         uuid.UUID  // Unique identifier (UUIDv7)
	Version    uint       // Monotonic version, immutable once created
	WrappedKey string     // Data key wrapped under the master key (iv:tag:ciphertext, base64 parts)
	Algorithm  Algorithm  // Encryption algorithm (AESGCM or ChaCha20)
	IsActive   bool       // At most one key is active at any time
	RotatedAt  *time.Time // Set when the key is deactivated by a rotation
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the key lifetime has elapsed.
func (k *EncryptionKey) IsExpired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}

// ShouldRotate reports whether the key is due for rotation: either it has
// expired or its age has reached the configured lifetime.
func (k *EncryptionKey) ShouldRotate(now time.Time, lifetime time.Duration) bool {
	if k.IsExpired(now) {
		return true
	}
	return now.Sub(k.CreatedAt) >= lifetime
}

// KeyUpdate carries the mutable fields of an EncryptionKey for partial updates.
// Nil fields are left untouched. Version and WrappedKey are immutable and
// intentionally absent.
type KeyUpdate struct {
	IsActive  *bool
	RotatedAt *time.Time
}

// RotationResult summarizes a completed key rotation run.
type RotationResult struct {
	NewVersion   uint          // Version of the newly activated key
	RotatedCount int           // Field records successfully re-encrypted
	FailedCount  int           // Field records that failed and were skipped
	Duration     time.Duration // Total wall-clock time of the run
}

// RotationStatus describes the current state of the key rotation schedule.
type RotationStatus struct {
	CurrentVersion      uint       // Version of the active key
	LastRotation        *time.Time // RotatedAt of the active key's predecessor, if any
	NextRotationDue     time.Time  // CreatedAt of the active key plus the key lifetime
	KeysPendingRotation int        // Active keys that are due for rotation
}
