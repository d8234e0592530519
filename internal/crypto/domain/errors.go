package domain

import (
	"github.com/keyfort/keyfort/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures.
var (
	// ErrInvalidMasterKey indicates the master key is missing, malformed,
	// or not exactly 32 bytes. Raised at constructor time so a misconfigured
	// deployment fails fast instead of producing undecryptable data.
	ErrInvalidMasterKey = errors.Wrap(errors.ErrInvalidInput, "invalid master key")

	// ErrMasterKeyNotSet indicates no master key source is configured.
	ErrMasterKeyNotSet = errors.Wrap(errors.ErrInvalidInput, "master key not set")

	// ErrInvalidEnvelopeFormat indicates a ciphertext envelope could not be parsed.
	//
	// Raised when the serialized form does not have exactly four non-empty
	// colon-separated parts, or the version component is not a valid integer.
	ErrInvalidEnvelopeFormat = errors.Wrap(errors.ErrInvalidInput, "invalid envelope format")

	// ErrAuthenticationFailed indicates authenticated decryption failed.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext or tag has been tampered with
	//   - Corrupted encrypted data
	//
	// The specific cause is intentionally not disclosed to prevent
	// information leakage that could aid attackers.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrInvalidInput, "authentication failed")

	// ErrInvalidKeySize indicates a data key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrKeyNotFound indicates no key exists for the requested version, or no
	// active key exists at all. Absence of an active key is always an error
	// state requiring rotation, never silently tolerated.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "encryption key not found")

	// ErrFieldNotFound indicates no encrypted field record exists for the
	// requested (entityType, entityID, fieldName) triple.
	ErrFieldNotFound = errors.Wrap(errors.ErrNotFound, "encrypted field not found")

	// ErrKeyRotationFailed wraps failures in the orchestration steps of a
	// rotation (minting or the atomic activate/deactivate swap). Per-record
	// re-encryption failures are counted and logged, never raised as this error.
	ErrKeyRotationFailed = errors.New("key rotation failed")
)
