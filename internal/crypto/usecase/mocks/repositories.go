// Package mocks provides mock implementations for testing cryptographic use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
)

// MockKeyRepository is a mock implementation of KeyRepository for testing.
type MockKeyRepository struct {
	mock.Mock
}

// Create mocks the Create method of KeyRepository.
func (m *MockKeyRepository) Create(
	ctx context.Context,
	wrappedKey string,
	alg cryptoDomain.Algorithm,
	expiresAt time.Time,
) (*cryptoDomain.EncryptionKey, error) {
	args := m.Called(ctx, wrappedKey, alg, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.EncryptionKey), args.Error(1)
}

// FindActive mocks the FindActive method of KeyRepository.
func (m *MockKeyRepository) FindActive(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.EncryptionKey), args.Error(1)
}

// FindByVersion mocks the FindByVersion method of KeyRepository.
func (m *MockKeyRepository) FindByVersion(
	ctx context.Context,
	version uint,
) (*cryptoDomain.EncryptionKey, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.EncryptionKey), args.Error(1)
}

// FindLatestRotated mocks the FindLatestRotated method of KeyRepository.
func (m *MockKeyRepository) FindLatestRotated(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.EncryptionKey), args.Error(1)
}

// FindAllActive mocks the FindAllActive method of KeyRepository.
func (m *MockKeyRepository) FindAllActive(ctx context.Context) ([]*cryptoDomain.EncryptionKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.EncryptionKey), args.Error(1)
}

// Update mocks the Update method of KeyRepository.
func (m *MockKeyRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	update cryptoDomain.KeyUpdate,
) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

// MockFieldRepository is a mock implementation of FieldRepository for testing.
type MockFieldRepository struct {
	mock.Mock
}

// Upsert mocks the Upsert method of FieldRepository.
func (m *MockFieldRepository) Upsert(
	ctx context.Context,
	record *cryptoDomain.EncryptedFieldRecord,
) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Find mocks the Find method of FieldRepository.
func (m *MockFieldRepository) Find(
	ctx context.Context,
	entityType, entityID, fieldName string,
) (*cryptoDomain.EncryptedFieldRecord, error) {
	args := m.Called(ctx, entityType, entityID, fieldName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.EncryptedFieldRecord), args.Error(1)
}

// FindByKeyVersion mocks the FindByKeyVersion method of FieldRepository.
func (m *MockFieldRepository) FindByKeyVersion(
	ctx context.Context,
	version uint,
	limit int,
) ([]*cryptoDomain.EncryptedFieldRecord, error) {
	args := m.Called(ctx, version, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.EncryptedFieldRecord), args.Error(1)
}

// Delete mocks the Delete method of FieldRepository.
func (m *MockFieldRepository) Delete(
	ctx context.Context,
	entityType, entityID, fieldName string,
) error {
	args := m.Called(ctx, entityType, entityID, fieldName)
	return args.Error(0)
}
