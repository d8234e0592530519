// Package usecase defines the business logic interfaces for cryptographic operations.
//
// This package contains interface definitions for repositories and use cases
// related to envelope encryption and key management. Implementations of these
// interfaces handle field-level encryption, key rotation, and the re-encryption
// of stored ciphertexts after a rotation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
)

// KeyRepository defines the interface for encryption key persistence.
//
// This interface abstracts key storage operations, allowing different
// implementations for PostgreSQL, MySQL, or other data stores. It supports
// transaction-aware operations through context propagation, enabling atomic
// key rotation workflows.
//
// Implementation requirements:
//   - Create must assign a monotonically increasing version even under
//     concurrent callers (version assignment happens inside the insert)
//   - The newly created key is inactive; activation is a separate Update
//   - Support both direct database operations and transactional operations
//   - Be thread-safe for concurrent access
//
// Available implementations:
//   - PostgreSQLKeyRepository: Uses native UUID types and RETURNING
//   - MySQLKeyRepository: Uses BINARY(16) for UUIDs
type KeyRepository interface {
	// Create stores a new inactive encryption key with the next version.
	//
	// The repository assigns the version (highest existing version plus one)
	// and returns the fully populated key. The key is created inactive so an
	// interrupted rotation never leaves two active keys behind.
	Create(
		ctx context.Context,
		wrappedKey string,
		alg cryptoDomain.Algorithm,
		expiresAt time.Time,
	) (*cryptoDomain.EncryptionKey, error)

	// FindActive returns the single active key.
	//
	// Returns cryptoDomain.ErrKeyNotFound if no key is active. Exactly one
	// key is active in a healthy system; having none is an error state that
	// a rotation repairs.
	FindActive(ctx context.Context) (*cryptoDomain.EncryptionKey, error)

	// FindByVersion returns the key for the given version, active or not.
	//
	// Deactivated keys are retained forever so envelopes written under old
	// versions stay decryptable. Returns cryptoDomain.ErrKeyNotFound if no
	// key exists for the version.
	FindByVersion(ctx context.Context, version uint) (*cryptoDomain.EncryptionKey, error)

	// FindAllActive returns all active keys ordered by version descending.
	FindAllActive(ctx context.Context) ([]*cryptoDomain.EncryptionKey, error)

	// FindLatestRotated returns the most recently rotated-out key, the one
	// with the newest non-null rotation timestamp. Keys minted but never
	// activated are skipped. Returns cryptoDomain.ErrKeyNotFound if no
	// rotation has happened yet.
	FindLatestRotated(ctx context.Context) (*cryptoDomain.EncryptionKey, error)

	// Update applies the mutable fields of a KeyUpdate to the key with the
	// given ID. Nil fields in the update are left untouched. Version and
	// wrapped key material are immutable.
	//
	// The method supports transaction context. If the context contains a
	// transaction (via database.GetTx), the operation participates in that
	// transaction, which is how rotation swaps the active key atomically.
	Update(ctx context.Context, id uuid.UUID, update cryptoDomain.KeyUpdate) error
}

// FieldRepository defines the interface for encrypted field persistence.
//
// Records are keyed by (entityType, entityID, fieldName). The stored envelope
// embeds the key version it was encrypted under, and the denormalized
// KeyVersion column lets rotation find stale records without parsing
// envelopes.
type FieldRepository interface {
	// Upsert inserts or replaces the encrypted value for a field.
	Upsert(ctx context.Context, record *cryptoDomain.EncryptedFieldRecord) error

	// Find returns the record for the composite key, or
	// cryptoDomain.ErrFieldNotFound.
	Find(ctx context.Context, entityType, entityID, fieldName string) (*cryptoDomain.EncryptedFieldRecord, error)

	// FindByKeyVersion returns up to limit records still encrypted under the
	// given key version. Rotation pages through this until it returns an
	// empty slice.
	FindByKeyVersion(ctx context.Context, version uint, limit int) ([]*cryptoDomain.EncryptedFieldRecord, error)

	// Delete removes a field record. Deleting a missing record is a no-op
	// success.
	Delete(ctx context.Context, entityType, entityID, fieldName string) error
}

// FieldUseCase defines field-level envelope encryption operations.
//
// This is the request-path surface: callers hand over a plaintext value for a
// named field of an entity and get back transparent storage of the versioned
// ciphertext envelope. Encryption always reads the currently active key fresh
// from the repository, so a write racing with a rotation lands on the new key
// and is naturally skipped by the rotation's old-version filter.
type FieldUseCase interface {
	// EncryptField encrypts plaintext under the active key and upserts the
	// resulting envelope for (entityType, entityID, fieldName).
	//
	// Returns cryptoDomain.ErrKeyNotFound if no active key exists; the
	// caller must rotate first.
	EncryptField(ctx context.Context, entityType, entityID, fieldName string, plaintext []byte) error

	// DecryptField loads the stored envelope for the field, resolves the key
	// by the version embedded in the envelope and returns the plaintext.
	//
	// Returns cryptoDomain.ErrFieldNotFound if no record exists,
	// cryptoDomain.ErrKeyNotFound if the embedded version references a
	// missing key, and cryptoDomain.ErrAuthenticationFailed if the
	// ciphertext does not authenticate.
	DecryptField(ctx context.Context, entityType, entityID, fieldName string) ([]byte, error)

	// DeleteField removes the stored ciphertext for a field.
	DeleteField(ctx context.Context, entityType, entityID, fieldName string) error
}

// RotationUseCase defines the key rotation engine.
//
// A rotation mints a new data key, atomically swaps it in as the active key
// and then re-encrypts all field records still carrying the old version. Old
// keys are deactivated but never deleted, so an interrupted run leaves every
// record decryptable and a re-invocation picks up exactly the records that
// were not migrated yet.
type RotationUseCase interface {
	// ShouldRotate reports whether a rotation is due: no active key exists,
	// or the active key is expired, or its age reached the configured
	// lifetime.
	ShouldRotate(ctx context.Context) (bool, error)

	// Rotate performs a full rotation run and reports counts and timing.
	//
	// Failures while minting or activating the new key abort the run with
	// cryptoDomain.ErrKeyRotationFailed and leave the previous active key in
	// place. Failures on individual records during re-encryption are logged
	// and counted, never propagated; the affected records keep their old
	// version and are retried by the next run.
	Rotate(ctx context.Context) (*cryptoDomain.RotationResult, error)

	// Status reports the current rotation schedule state.
	//
	// Returns cryptoDomain.ErrKeyNotFound when no active key exists; the
	// absence of an active key is always an error state requiring rotation,
	// never silently tolerated.
	Status(ctx context.Context) (*cryptoDomain.RotationStatus, error)
}
