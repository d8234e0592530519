package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
)

// MockFieldUseCase is a mock implementation of FieldUseCase for testing.
type MockFieldUseCase struct {
	mock.Mock
}

// EncryptField mocks the EncryptField method of FieldUseCase.
func (m *MockFieldUseCase) EncryptField(
	ctx context.Context,
	entityType, entityID, fieldName string,
	plaintext []byte,
) error {
	args := m.Called(ctx, entityType, entityID, fieldName, plaintext)
	return args.Error(0)
}

// DecryptField mocks the DecryptField method of FieldUseCase.
func (m *MockFieldUseCase) DecryptField(
	ctx context.Context,
	entityType, entityID, fieldName string,
) ([]byte, error) {
	args := m.Called(ctx, entityType, entityID, fieldName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DeleteField mocks the DeleteField method of FieldUseCase.
func (m *MockFieldUseCase) DeleteField(
	ctx context.Context,
	entityType, entityID, fieldName string,
) error {
	args := m.Called(ctx, entityType, entityID, fieldName)
	return args.Error(0)
}

// MockRotationUseCase is a mock implementation of RotationUseCase for testing.
type MockRotationUseCase struct {
	mock.Mock
}

// ShouldRotate mocks the ShouldRotate method of RotationUseCase.
func (m *MockRotationUseCase) ShouldRotate(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// Rotate mocks the Rotate method of RotationUseCase.
func (m *MockRotationUseCase) Rotate(ctx context.Context) (*cryptoDomain.RotationResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.RotationResult), args.Error(1)
}

// Status mocks the Status method of RotationUseCase.
func (m *MockRotationUseCase) Status(ctx context.Context) (*cryptoDomain.RotationStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.RotationStatus), args.Error(1)
}
