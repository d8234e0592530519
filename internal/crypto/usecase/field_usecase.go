package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	cryptoService "github.com/keyfort/keyfort/internal/crypto/service"
)

// fieldUseCase implements FieldUseCase on top of the key and field
// repositories and the envelope cipher.
type fieldUseCase struct {
	keyRepo   KeyRepository
	fieldRepo FieldRepository
	cipher    cryptoService.EnvelopeCipher
}

// NewFieldUseCase creates a new FieldUseCase instance.
func NewFieldUseCase(
	keyRepo KeyRepository,
	fieldRepo FieldRepository,
	cipher cryptoService.EnvelopeCipher,
) FieldUseCase {
	return &fieldUseCase{
		keyRepo:   keyRepo,
		fieldRepo: fieldRepo,
		cipher:    cipher,
	}
}

// EncryptField encrypts plaintext under the active key and upserts the envelope.
//
// The active key is read fresh on every call. This keeps a write that races
// with a rotation on the winning side: once the new key is activated, any
// encrypt lands on the new version and the rotation's old-version filter skips
// the record.
func (f *fieldUseCase) EncryptField(
	ctx context.Context,
	entityType, entityID, fieldName string,
	plaintext []byte,
) error {
	key, err := f.keyRepo.FindActive(ctx)
	if err != nil {
		return err
	}

	dataKey, err := f.cipher.UnwrapKey(key.WrappedKey)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(dataKey)

	envelope, err := f.cipher.Encrypt(plaintext, dataKey, key.Version)
	if err != nil {
		return err
	}

	record := &cryptoDomain.EncryptedFieldRecord{
		EntityType: entityType,
		EntityID:   entityID,
		FieldName:  fieldName,
		Envelope:   envelope,
		KeyVersion: key.Version,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	return f.fieldRepo.Upsert(ctx, record)
}

// DecryptField loads the stored envelope and decrypts it with the key version
// embedded in the envelope, not the active key. Records written before past
// rotations remain readable this way.
func (f *fieldUseCase) DecryptField(
	ctx context.Context,
	entityType, entityID, fieldName string,
) ([]byte, error) {
	record, err := f.fieldRepo.Find(ctx, entityType, entityID, fieldName)
	if err != nil {
		return nil, err
	}

	envelope, err := cryptoDomain.ParseEnvelope(record.Envelope)
	if err != nil {
		return nil, err
	}

	key, err := f.keyRepo.FindByVersion(ctx, envelope.Version)
	if err != nil {
		return nil, err
	}

	dataKey, err := f.cipher.UnwrapKey(key.WrappedKey)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dataKey)

	return f.cipher.Decrypt(record.Envelope, dataKey)
}

// DeleteField removes the stored ciphertext for a field.
func (f *fieldUseCase) DeleteField(
	ctx context.Context,
	entityType, entityID, fieldName string,
) error {
	return f.fieldRepo.Delete(ctx, entityType, entityID, fieldName)
}
