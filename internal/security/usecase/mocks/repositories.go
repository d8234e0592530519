// Package mocks provides mock implementations for testing security use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// MockSessionRepository is a mock implementation of SessionRepository for testing.
type MockSessionRepository struct {
	mock.Mock
}

// Create mocks the Create method of SessionRepository.
func (m *MockSessionRepository) Create(ctx context.Context, session *securityDomain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// FindByID mocks the FindByID method of SessionRepository.
func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*securityDomain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.Session), args.Error(1)
}

// FindByUserID mocks the FindByUserID method of SessionRepository.
func (m *MockSessionRepository) FindByUserID(ctx context.Context, userID string) ([]*securityDomain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.Session), args.Error(1)
}

// FindByUserIDForUpdate mocks the FindByUserIDForUpdate method of SessionRepository.
func (m *MockSessionRepository) FindByUserIDForUpdate(ctx context.Context, userID string) ([]*securityDomain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.Session), args.Error(1)
}

// UpdateLastActivity mocks the UpdateLastActivity method of SessionRepository.
func (m *MockSessionRepository) UpdateLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// Delete mocks the Delete method of SessionRepository.
func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// DeleteAllByUserID mocks the DeleteAllByUserID method of SessionRepository.
func (m *MockSessionRepository) DeleteAllByUserID(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// DeleteInactiveSince mocks the DeleteInactiveSince method of SessionRepository.
func (m *MockSessionRepository) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// MockSecurityEventRepository is a mock implementation of SecurityEventRepository for testing.
type MockSecurityEventRepository struct {
	mock.Mock
}

// Create mocks the Create method of SecurityEventRepository.
func (m *MockSecurityEventRepository) Create(ctx context.Context, event *securityDomain.SecurityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// FindByFilter mocks the FindByFilter method of SecurityEventRepository.
func (m *MockSecurityEventRepository) FindByFilter(
	ctx context.Context,
	filter securityDomain.EventFilter,
) ([]*securityDomain.SecurityEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.SecurityEvent), args.Error(1)
}

// CountByTypeAndUser mocks the CountByTypeAndUser method of SecurityEventRepository.
func (m *MockSecurityEventRepository) CountByTypeAndUser(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID string,
	since time.Time,
) (int, error) {
	args := m.Called(ctx, eventType, userID, since)
	return args.Int(0), args.Error(1)
}

// CountByTypeInRange mocks the CountByTypeInRange method of SecurityEventRepository.
func (m *MockSecurityEventRepository) CountByTypeInRange(
	ctx context.Context,
	start, end time.Time,
) (map[securityDomain.EventType]int, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[securityDomain.EventType]int), args.Error(1)
}

// MockUserSecurityRepository is a mock implementation of UserSecurityRepository for testing.
type MockUserSecurityRepository struct {
	mock.Mock
}

// FindByUserID mocks the FindByUserID method of UserSecurityRepository.
func (m *MockUserSecurityRepository) FindByUserID(
	ctx context.Context,
	userID string,
) (*securityDomain.UserSecurity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.UserSecurity), args.Error(1)
}

// Update mocks the Update method of UserSecurityRepository.
func (m *MockUserSecurityRepository) Update(
	ctx context.Context,
	userID string,
	update securityDomain.UserSecurityUpdate,
) error {
	args := m.Called(ctx, userID, update)
	return args.Error(0)
}

// FindLocked mocks the FindLocked method of UserSecurityRepository.
func (m *MockUserSecurityRepository) FindLocked(
	ctx context.Context,
	now time.Time,
) ([]*securityDomain.UserSecurity, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.UserSecurity), args.Error(1)
}

// CountLocked mocks the CountLocked method of UserSecurityRepository.
func (m *MockUserSecurityRepository) CountLocked(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
