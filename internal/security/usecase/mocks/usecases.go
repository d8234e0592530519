package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// MockAccountLockUseCase is a mock implementation of AccountLockUseCase for testing.
type MockAccountLockUseCase struct {
	mock.Mock
}

// RecordFailedLogin mocks the RecordFailedLogin method of AccountLockUseCase.
func (m *MockAccountLockUseCase) RecordFailedLogin(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// IsLocked mocks the IsLocked method of AccountLockUseCase.
func (m *MockAccountLockUseCase) IsLocked(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// Unlock mocks the Unlock method of AccountLockUseCase.
func (m *MockAccountLockUseCase) Unlock(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// ResetAttempts mocks the ResetAttempts method of AccountLockUseCase.
func (m *MockAccountLockUseCase) ResetAttempts(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// LockedAccounts mocks the LockedAccounts method of AccountLockUseCase.
func (m *MockAccountLockUseCase) LockedAccounts(ctx context.Context) ([]*securityDomain.UserSecurity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.UserSecurity), args.Error(1)
}

// MockSessionUseCase is a mock implementation of SessionUseCase for testing.
type MockSessionUseCase struct {
	mock.Mock
}

// CreateSession mocks the CreateSession method of SessionUseCase.
func (m *MockSessionUseCase) CreateSession(
	ctx context.Context,
	userID, ipAddress, userAgent string,
) (*securityDomain.Session, error) {
	args := m.Called(ctx, userID, ipAddress, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.Session), args.Error(1)
}

// Validate mocks the Validate method of SessionUseCase.
func (m *MockSessionUseCase) Validate(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

// Terminate mocks the Terminate method of SessionUseCase.
func (m *MockSessionUseCase) Terminate(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// TerminateAll mocks the TerminateAll method of SessionUseCase.
func (m *MockSessionUseCase) TerminateAll(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// ActiveSessions mocks the ActiveSessions method of SessionUseCase.
func (m *MockSessionUseCase) ActiveSessions(
	ctx context.Context,
	userID string,
) ([]*securityDomain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.Session), args.Error(1)
}

// PurgeExpired mocks the PurgeExpired method of SessionUseCase.
func (m *MockSessionUseCase) PurgeExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockMonitorUseCase is a mock implementation of MonitorUseCase for testing.
type MockMonitorUseCase struct {
	mock.Mock
}

// Record mocks the Record method of MonitorUseCase.
func (m *MockMonitorUseCase) Record(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID, ipAddress, userAgent string,
	metadata map[string]any,
) error {
	args := m.Called(ctx, eventType, userID, ipAddress, userAgent, metadata)
	return args.Error(0)
}

// DetectSuspicious mocks the DetectSuspicious method of MonitorUseCase.
func (m *MockMonitorUseCase) DetectSuspicious(ctx context.Context, userID, ipAddress string) (bool, error) {
	args := m.Called(ctx, userID, ipAddress)
	return args.Bool(0), args.Error(1)
}

// Metrics mocks the Metrics method of MonitorUseCase.
func (m *MockMonitorUseCase) Metrics(
	ctx context.Context,
	start, end time.Time,
) (*securityDomain.EventStats, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.EventStats), args.Error(1)
}

// RecentEvents mocks the RecentEvents method of MonitorUseCase.
func (m *MockMonitorUseCase) RecentEvents(
	ctx context.Context,
	limit int,
) ([]*securityDomain.SecurityEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*securityDomain.SecurityEvent), args.Error(1)
}

// MockLoginUseCase is a mock implementation of LoginUseCase for testing.
type MockLoginUseCase struct {
	mock.Mock
}

// Login mocks the Login method of LoginUseCase.
func (m *MockLoginUseCase) Login(
	ctx context.Context,
	input *securityDomain.LoginInput,
) (*securityDomain.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityDomain.Session), args.Error(1)
}
