package domain

import (
	"time"
)

// EncryptedFieldRecord stores one encrypted field value for an entity.
// The composite key is (EntityType, EntityID, FieldName). Envelope holds the
// serialized ciphertext envelope; KeyVersion duplicates the envelope's embedded
// version so rotation can find stale records with a plain indexed query.
type EncryptedFieldRecord struct {
	EntityType string // Owning entity kind (e.g., "user")
	EntityID   string // Owning entity identifier
	FieldName  string // Field being protected (e.g., "phone_number")
	Envelope   string // Serialized ciphertext envelope
	KeyVersion uint   // Data key version the envelope was written under
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
