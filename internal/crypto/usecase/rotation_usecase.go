package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	cryptoService "github.com/keyfort/keyfort/internal/crypto/service"
	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
)

// rotationUseCase implements RotationUseCase.
//
// A rotation run has three phases. Phases one and two (mint a new wrapped data
// key, atomically swap the active key) are fatal on error and leave the prior
// key active. Phase three (re-encrypt field records carrying the old version)
// tolerates per-record failures and can be resumed by the next run, since the
// old-version filter identifies exactly the records that were not migrated.
type rotationUseCase struct {
	txManager   database.TxManager
	keyRepo     KeyRepository
	fieldRepo   FieldRepository
	cipher      cryptoService.EnvelopeCipher
	logger      *slog.Logger
	algorithm   cryptoDomain.Algorithm
	keyLifetime time.Duration
	batchSize   int
	pagePause   time.Duration
}

// NewRotationUseCase creates a new RotationUseCase instance.
//
// keyLifetime bounds both the rotation schedule and the ExpiresAt of minted
// keys. batchSize caps the page size of the re-encryption loop and pagePause
// is the minimum spacing between pages, enforced with a token bucket so a
// large migration does not saturate the database.
func NewRotationUseCase(
	txManager database.TxManager,
	keyRepo KeyRepository,
	fieldRepo FieldRepository,
	cipher cryptoService.EnvelopeCipher,
	logger *slog.Logger,
	algorithm cryptoDomain.Algorithm,
	keyLifetime time.Duration,
	batchSize int,
	pagePause time.Duration,
) RotationUseCase {
	return &rotationUseCase{
		txManager:   txManager,
		keyRepo:     keyRepo,
		fieldRepo:   fieldRepo,
		cipher:      cipher,
		logger:      logger,
		algorithm:   algorithm,
		keyLifetime: keyLifetime,
		batchSize:   batchSize,
		pagePause:   pagePause,
	}
}

// ShouldRotate reports whether a rotation is due.
func (r *rotationUseCase) ShouldRotate(ctx context.Context) (bool, error) {
	key, err := r.keyRepo.FindActive(ctx)
	if err != nil {
		if apperrors.Is(err, cryptoDomain.ErrKeyNotFound) {
			return true, nil
		}
		return false, err
	}

	return key.ShouldRotate(time.Now().UTC(), r.keyLifetime), nil
}

// Rotate performs a full rotation run.
//
// The swap of the active key runs in a single transaction, so concurrent
// encrypt callers observe either the old key or the new one and never a state
// with no active key.
func (r *rotationUseCase) Rotate(ctx context.Context) (*cryptoDomain.RotationResult, error) {
	start := time.Now().UTC()

	oldKey, err := r.keyRepo.FindActive(ctx)
	if err != nil && !apperrors.Is(err, cryptoDomain.ErrKeyNotFound) {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyRotationFailed, err.Error())
	}

	rawKey, wrappedKey, err := r.cipher.GenerateDataKey()
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyRotationFailed, err.Error())
	}
	cryptoDomain.Zero(rawKey)

	newKey, err := r.keyRepo.Create(ctx, wrappedKey, r.algorithm, start.Add(r.keyLifetime))
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyRotationFailed, err.Error())
	}

	err = r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if oldKey != nil {
			update := cryptoDomain.KeyUpdate{
				IsActive:  boolPtr(false),
				RotatedAt: &start,
			}
			if err := r.keyRepo.Update(txCtx, oldKey.ID, update); err != nil {
				return err
			}
		}
		return r.keyRepo.Update(txCtx, newKey.ID, cryptoDomain.KeyUpdate{IsActive: boolPtr(true)})
	})
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrKeyRotationFailed, err.Error())
	}

	r.logger.Info("encryption key rotated",
		slog.Uint64("new_version", uint64(newKey.Version)),
	)

	result := &cryptoDomain.RotationResult{NewVersion: newKey.Version}

	if oldKey != nil {
		result.RotatedCount, result.FailedCount = r.reencrypt(ctx, oldKey, newKey)
	}

	result.Duration = time.Since(start)

	r.logger.Info("key rotation finished",
		slog.Uint64("new_version", uint64(result.NewVersion)),
		slog.Int("rotated", result.RotatedCount),
		slog.Int("failed", result.FailedCount),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// reencrypt migrates field records from oldKey to newKey in bounded pages.
//
// Per-record failures are logged and counted, never propagated. A page where
// nothing succeeded stops the loop: the remaining records all failed before
// and would repeat forever, so they are left for a later run after the cause
// is fixed. Cancelling the context stops the run between pages, which is a
// safe resumption point.
func (r *rotationUseCase) reencrypt(
	ctx context.Context,
	oldKey, newKey *cryptoDomain.EncryptionKey,
) (rotated, failed int) {
	oldDataKey, err := r.cipher.UnwrapKey(oldKey.WrappedKey)
	if err != nil {
		r.logger.Error("failed to unwrap old data key, skipping re-encryption",
			slog.Uint64("old_version", uint64(oldKey.Version)),
			slog.String("error", err.Error()),
		)
		return 0, 0
	}
	defer cryptoDomain.Zero(oldDataKey)

	newDataKey, err := r.cipher.UnwrapKey(newKey.WrappedKey)
	if err != nil {
		r.logger.Error("failed to unwrap new data key, skipping re-encryption",
			slog.Uint64("new_version", uint64(newKey.Version)),
			slog.String("error", err.Error()),
		)
		return 0, 0
	}
	defer cryptoDomain.Zero(newDataKey)

	limiter := rate.NewLimiter(rate.Every(r.pagePause), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			r.logger.Warn("re-encryption interrupted",
				slog.Uint64("old_version", uint64(oldKey.Version)),
				slog.String("error", err.Error()),
			)
			return rotated, failed
		}

		records, err := r.fieldRepo.FindByKeyVersion(ctx, oldKey.Version, r.batchSize)
		if err != nil {
			r.logger.Error("failed to fetch field records for re-encryption",
				slog.Uint64("old_version", uint64(oldKey.Version)),
				slog.String("error", err.Error()),
			)
			return rotated, failed
		}
		if len(records) == 0 {
			return rotated, failed
		}

		pageRotated := 0
		for _, record := range records {
			if err := r.reencryptRecord(ctx, record, oldDataKey, newDataKey, newKey.Version); err != nil {
				failed++
				r.logger.Warn("failed to re-encrypt field record",
					slog.String("entity_type", record.EntityType),
					slog.String("entity_id", record.EntityID),
					slog.String("field_name", record.FieldName),
					slog.String("error", err.Error()),
				)
				continue
			}
			rotated++
			pageRotated++
		}

		// Failed records keep the old version and would be fetched again.
		if pageRotated == 0 {
			return rotated, failed
		}
	}
}

// reencryptRecord decrypts one record with the old data key, encrypts it with
// the new one and upserts the result.
func (r *rotationUseCase) reencryptRecord(
	ctx context.Context,
	record *cryptoDomain.EncryptedFieldRecord,
	oldDataKey, newDataKey []byte,
	newVersion uint,
) error {
	plaintext, err := r.cipher.Decrypt(record.Envelope, oldDataKey)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(plaintext)

	envelope, err := r.cipher.Encrypt(plaintext, newDataKey, newVersion)
	if err != nil {
		return err
	}

	record.Envelope = envelope
	record.KeyVersion = newVersion

	return r.fieldRepo.Upsert(ctx, record)
}

// Status reports the current rotation schedule state.
func (r *rotationUseCase) Status(ctx context.Context) (*cryptoDomain.RotationStatus, error) {
	active, err := r.keyRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	status := &cryptoDomain.RotationStatus{
		CurrentVersion:  active.Version,
		NextRotationDue: active.CreatedAt.Add(r.keyLifetime),
	}

	// The newest rotated-out key carries the last rotation timestamp. Keys
	// minted but never activated have no rotated_at and are skipped by the
	// lookup.
	rotated, err := r.keyRepo.FindLatestRotated(ctx)
	if err != nil && !apperrors.Is(err, cryptoDomain.ErrKeyNotFound) {
		return nil, err
	}
	if rotated != nil {
		status.LastRotation = rotated.RotatedAt
	}

	activeKeys, err := r.keyRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, key := range activeKeys {
		if key.ShouldRotate(now, r.keyLifetime) {
			status.KeysPendingRotation++
		}
	}

	return status, nil
}

func boolPtr(b bool) *bool {
	return &b
}
