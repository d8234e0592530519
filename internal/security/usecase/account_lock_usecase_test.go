package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	usecaseMocks "github.com/keyfort/keyfort/internal/security/usecase/mocks"
)

const (
	testMaxAttempts  = 3
	testLockDuration = 15 * time.Minute
	testResetWindow  = 24 * time.Hour
)

func newTestLockUseCase(
	userRepo *usecaseMocks.MockUserSecurityRepository,
	monitor *usecaseMocks.MockMonitorUseCase,
) AccountLockUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAccountLockUseCase(userRepo, monitor, logger, testMaxAttempts, testLockDuration, testResetWindow)
}

func TestAccountLockUseCase_RecordFailedLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FirstFailureDoesNotLock", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockUserRepo.On("FindByUserID", ctx, "user-1").
			Return(&securityDomain.UserSecurity{UserID: "user-1"}, nil)
		mockUserRepo.On("Update", ctx, "user-1", mock.MatchedBy(func(u securityDomain.UserSecurityUpdate) bool {
			return u.FailedLoginAttempts != nil && *u.FailedLoginAttempts == 1 &&
				u.LastFailedAttempt != nil && u.LockedUntil == nil
		})).Return(nil)

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		locked, err := uc.RecordFailedLogin(ctx, "user-1")

		require.NoError(t, err)
		assert.False(t, locked)
		mockMonitor.AssertNotCalled(t, "Record",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_ThirdFailureLocksAndEmitsEvent", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		lastFailed := time.Now().UTC().Add(-time.Minute)
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:              "user-1",
			FailedLoginAttempts: 2,
			LastFailedAttempt:   &lastFailed,
		}, nil)
		mockUserRepo.On("Update", ctx, "user-1", mock.MatchedBy(func(u securityDomain.UserSecurityUpdate) bool {
			return u.FailedLoginAttempts != nil && *u.FailedLoginAttempts == 3 && u.LockedUntil != nil
		})).Return(nil)
		mockMonitor.On("Record", ctx, securityDomain.AccountLocked, "user-1", "", "", mock.Anything).
			Return(nil).Once()

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		locked, err := uc.RecordFailedLogin(ctx, "user-1")

		require.NoError(t, err)
		assert.True(t, locked)
		mockMonitor.AssertExpectations(t)
	})

	t.Run("Success_StaleFailuresRestartTheCount", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		lastFailed := time.Now().UTC().Add(-25 * time.Hour)
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:              "user-1",
			FailedLoginAttempts: 2,
			LastFailedAttempt:   &lastFailed,
		}, nil)
		mockUserRepo.On("Update", ctx, "user-1", mock.MatchedBy(func(u securityDomain.UserSecurityUpdate) bool {
			return u.FailedLoginAttempts != nil && *u.FailedLoginAttempts == 1 && u.LockedUntil == nil
		})).Return(nil)

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		locked, err := uc.RecordFailedLogin(ctx, "user-1")

		require.NoError(t, err)
		assert.False(t, locked)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Success_FailureWhileLockedDoesNotExtendLock", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		lockedUntil := time.Now().UTC().Add(10 * time.Minute)
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:              "user-1",
			FailedLoginAttempts: 3,
			LockedUntil:         &lockedUntil,
		}, nil)

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		locked, err := uc.RecordFailedLogin(ctx, "user-1")

		require.NoError(t, err)
		assert.True(t, locked)
		mockUserRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_UnknownUser", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockUserRepo.On("FindByUserID", ctx, "missing").Return(nil, securityDomain.ErrUserNotFound)

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		_, err := uc.RecordFailedLogin(ctx, "missing")

		assert.ErrorIs(t, err, securityDomain.ErrUserNotFound)
	})

	t.Run("Success_EventFailureDoesNotFailLockout", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:              "user-1",
			FailedLoginAttempts: 2,
			LastFailedAttempt:   timePtr(time.Now().UTC().Add(-time.Minute)),
		}, nil)
		mockUserRepo.On("Update", ctx, "user-1", mock.Anything).Return(nil)
		mockMonitor.On("Record", ctx, securityDomain.AccountLocked, "user-1", "", "", mock.Anything).
			Return(errors.New("event store down"))

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		locked, err := uc.RecordFailedLogin(ctx, "user-1")

		require.NoError(t, err)
		assert.True(t, locked)
	})
}

func TestAccountLockUseCase_IsLocked(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LockedAccount", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		lockedUntil := time.Now().UTC().Add(5 * time.Minute)
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:      "user-1",
			LockedUntil: &lockedUntil,
		}, nil)

		uc := newTestLockUseCase(mockUserRepo, &usecaseMocks.MockMonitorUseCase{})
		locked, err := uc.IsLocked(ctx, "user-1")

		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("Success_ElapsedLockIsUnlocked", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		lockedUntil := time.Now().UTC().Add(-time.Minute)
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:      "user-1",
			LockedUntil: &lockedUntil,
		}, nil)

		uc := newTestLockUseCase(mockUserRepo, &usecaseMocks.MockMonitorUseCase{})
		locked, err := uc.IsLocked(ctx, "user-1")

		require.NoError(t, err)
		assert.False(t, locked)
	})
}

func TestAccountLockUseCase_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ClearsStateAndEmitsEvent", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}

		mockUserRepo.On("Update", ctx, "user-1", mock.MatchedBy(func(u securityDomain.UserSecurityUpdate) bool {
			return u.FailedLoginAttempts != nil && *u.FailedLoginAttempts == 0 &&
				u.ClearLock && u.ClearLastFailed
		})).Return(nil)
		mockMonitor.On("Record", ctx, securityDomain.AccountUnlocked, "user-1", "", "", mock.Anything).
			Return(nil).Once()

		uc := newTestLockUseCase(mockUserRepo, mockMonitor)
		err := uc.Unlock(ctx, "user-1")

		require.NoError(t, err)
		mockMonitor.AssertExpectations(t)
	})
}

func TestAccountLockUseCase_LockedAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ListsLockedAccounts", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		locked := []*securityDomain.UserSecurity{{UserID: "user-1"}, {UserID: "user-2"}}
		mockUserRepo.On("FindLocked", ctx, mock.Anything).Return(locked, nil)

		uc := newTestLockUseCase(mockUserRepo, &usecaseMocks.MockMonitorUseCase{})
		accounts, err := uc.LockedAccounts(ctx)

		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func timePtr(t time.Time) *time.Time {
	return &t
}
