package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	"github.com/keyfort/keyfort/internal/metrics"
)

// fieldUseCaseWithMetrics decorates FieldUseCase with metrics instrumentation.
type fieldUseCaseWithMetrics struct {
	next    FieldUseCase
	metrics metrics.BusinessMetrics
}

// NewFieldUseCaseWithMetrics wraps a FieldUseCase with metrics recording.
func NewFieldUseCaseWithMetrics(useCase FieldUseCase, m metrics.BusinessMetrics) FieldUseCase {
	return &fieldUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// EncryptField records metrics for field encryption operations.
func (f *fieldUseCaseWithMetrics) EncryptField(
	ctx context.Context,
	entityType, entityID, fieldName string,
	plaintext []byte,
) error {
	start := time.Now()
	err := f.next.EncryptField(ctx, entityType, entityID, fieldName, plaintext)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "crypto", "field_encrypt", status)
	f.metrics.RecordDuration(ctx, "crypto", "field_encrypt", time.Since(start), status)

	return err
}

// DecryptField records metrics for field decryption operations.
func (f *fieldUseCaseWithMetrics) DecryptField(
	ctx context.Context,
	entityType, entityID, fieldName string,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := f.next.DecryptField(ctx, entityType, entityID, fieldName)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "crypto", "field_decrypt", status)
	f.metrics.RecordDuration(ctx, "crypto", "field_decrypt", time.Since(start), status)

	return plaintext, err
}

// DeleteField records metrics for field deletion operations.
func (f *fieldUseCaseWithMetrics) DeleteField(
	ctx context.Context,
	entityType, entityID, fieldName string,
) error {
	start := time.Now()
	err := f.next.DeleteField(ctx, entityType, entityID, fieldName)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "crypto", "field_delete", status)
	f.metrics.RecordDuration(ctx, "crypto", "field_delete", time.Since(start), status)

	return err
}

// rotationUseCaseWithMetrics decorates RotationUseCase with metrics instrumentation.
type rotationUseCaseWithMetrics struct {
	next    RotationUseCase
	metrics metrics.BusinessMetrics
}

// NewRotationUseCaseWithMetrics wraps a RotationUseCase with metrics recording.
func NewRotationUseCaseWithMetrics(useCase RotationUseCase, m metrics.BusinessMetrics) RotationUseCase {
	return &rotationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// ShouldRotate records metrics for rotation due checks.
func (r *rotationUseCaseWithMetrics) ShouldRotate(ctx context.Context) (bool, error) {
	start := time.Now()
	due, err := r.next.ShouldRotate(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "crypto", "rotation_check", status)
	r.metrics.RecordDuration(ctx, "crypto", "rotation_check", time.Since(start), status)

	return due, err
}

// Rotate records metrics for key rotation runs.
func (r *rotationUseCaseWithMetrics) Rotate(ctx context.Context) (*cryptoDomain.RotationResult, error) {
	start := time.Now()
	result, err := r.next.Rotate(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "crypto", "key_rotate", status)
	r.metrics.RecordDuration(ctx, "crypto", "key_rotate", time.Since(start), status)

	return result, err
}

// Status records metrics for rotation status queries.
func (r *rotationUseCaseWithMetrics) Status(ctx context.Context) (*cryptoDomain.RotationStatus, error) {
	start := time.Now()
	rotationStatus, err := r.next.Status(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "crypto", "rotation_status", status)
	r.metrics.RecordDuration(ctx, "crypto", "rotation_status", time.Since(start), status)

	return rotationStatus, err
}
