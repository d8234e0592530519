package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	usecaseMocks "github.com/keyfort/keyfort/internal/security/usecase/mocks"
)

// fakePasswordService verifies against a single known password without the
// cost of real Argon2id hashing.
type fakePasswordService struct {
	valid string
}

func (f *fakePasswordService) Hash(plainPassword string) (string, error) {
	return "hashed:" + plainPassword, nil
}

func (f *fakePasswordService) Verify(plainPassword, hashedPassword string) bool {
	return plainPassword == f.valid
}

func newTestLoginUseCase(
	userRepo *usecaseMocks.MockUserSecurityRepository,
	lock *usecaseMocks.MockAccountLockUseCase,
	monitor *usecaseMocks.MockMonitorUseCase,
	session *usecaseMocks.MockSessionUseCase,
) LoginUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLoginUseCase(userRepo, lock, monitor, session, &fakePasswordService{valid: "correct-horse"}, logger)
}

func validLoginInput() *securityDomain.LoginInput {
	return &securityDomain.LoginInput{
		UserID:    "user-1",
		Password:  "correct-horse",
		IPAddress: "203.0.113.10",
		UserAgent: "test-agent",
	}
}

func TestLoginUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CreatesSessionAndRecordsEvent", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockLock := &usecaseMocks.MockAccountLockUseCase{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}
		mockSession := &usecaseMocks.MockSessionUseCase{}

		input := validLoginInput()
		session := &securityDomain.Session{
			ID:           uuid.Must(uuid.NewV7()),
			UserID:       input.UserID,
			LastActivity: time.Now().UTC(),
		}

		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:       "user-1",
			PasswordHash: "hashed:correct-horse",
		}, nil)
		mockLock.On("IsLocked", ctx, "user-1").Return(false, nil)
		mockLock.On("ResetAttempts", ctx, "user-1").Return(nil).Once()
		mockSession.On("CreateSession", ctx, "user-1", input.IPAddress, input.UserAgent).
			Return(session, nil).Once()
		mockMonitor.On("Record", ctx, securityDomain.LoginSuccess, "user-1", input.IPAddress, input.UserAgent, mock.Anything).
			Return(nil).Once()

		uc := newTestLoginUseCase(mockUserRepo, mockLock, mockMonitor, mockSession)
		got, err := uc.Login(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		mockLock.AssertExpectations(t)
		mockSession.AssertExpectations(t)
		mockMonitor.AssertExpectations(t)
	})

	t.Run("Error_UnknownUserGetsGenericRejection", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockLock := &usecaseMocks.MockAccountLockUseCase{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}
		mockSession := &usecaseMocks.MockSessionUseCase{}

		input := validLoginInput()
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(nil, securityDomain.ErrUserNotFound)
		mockMonitor.On("Record", ctx, securityDomain.LoginFailed, "user-1", input.IPAddress, input.UserAgent,
			mock.MatchedBy(func(md map[string]any) bool { return md["reason"] == "unknown user" })).
			Return(nil).Once()

		uc := newTestLoginUseCase(mockUserRepo, mockLock, mockMonitor, mockSession)
		_, err := uc.Login(ctx, input)

		assert.ErrorIs(t, err, securityDomain.ErrInvalidCredentials)
		mockMonitor.AssertExpectations(t)
	})

	t.Run("Error_LockedAccountRejectsEvenWithCorrectPassword", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockLock := &usecaseMocks.MockAccountLockUseCase{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}
		mockSession := &usecaseMocks.MockSessionUseCase{}

		input := validLoginInput()
		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:       "user-1",
			PasswordHash: "hashed:correct-horse",
		}, nil)
		mockLock.On("IsLocked", ctx, "user-1").Return(true, nil)
		mockMonitor.On("Record", ctx, securityDomain.LoginFailed, "user-1", input.IPAddress, input.UserAgent,
			mock.MatchedBy(func(md map[string]any) bool { return md["reason"] == "account locked" })).
			Return(nil).Once()

		uc := newTestLoginUseCase(mockUserRepo, mockLock, mockMonitor, mockSession)
		_, err := uc.Login(ctx, input)

		assert.ErrorIs(t, err, securityDomain.ErrInvalidCredentials)
		mockSession.AssertNotCalled(t, "CreateSession",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_WrongPasswordRecordsFailureAndRunsDetection", func(t *testing.T) {
		mockUserRepo := &usecaseMocks.MockUserSecurityRepository{}
		mockLock := &usecaseMocks.MockAccountLockUseCase{}
		mockMonitor := &usecaseMocks.MockMonitorUseCase{}
		mockSession := &usecaseMocks.MockSessionUseCase{}

		input := validLoginInput()
		input.Password = "wrong-password"

		mockUserRepo.On("FindByUserID", ctx, "user-1").Return(&securityDomain.UserSecurity{
			UserID:       "user-1",
			PasswordHash: "hashed:correct-horse",
		}, nil)
		mockLock.On("IsLocked", ctx, "user-1").Return(false, nil)
		mockLock.On("RecordFailedLogin", ctx, "user-1").Return(false, nil).Once()
		mockMonitor.On("DetectSuspicious", ctx, "user-1", input.IPAddress).Return(false, nil).Once()
		mockMonitor.On("Record", ctx, securityDomain.LoginFailed, "user-1", input.IPAddress, input.UserAgent,
			mock.MatchedBy(func(md map[string]any) bool { return md["reason"] == "invalid password" })).
			Return(nil).Once()

		uc := newTestLoginUseCase(mockUserRepo, mockLock, mockMonitor, mockSession)
		_, err := uc.Login(ctx, input)

		assert.ErrorIs(t, err, securityDomain.ErrInvalidCredentials)
		mockLock.AssertExpectations(t)
		mockMonitor.AssertExpectations(t)
	})

	t.Run("Error_InvalidInput", func(t *testing.T) {
		uc := newTestLoginUseCase(
			&usecaseMocks.MockUserSecurityRepository{},
			&usecaseMocks.MockAccountLockUseCase{},
			&usecaseMocks.MockMonitorUseCase{},
			&usecaseMocks.MockSessionUseCase{},
		)

		_, err := uc.Login(ctx, &securityDomain.LoginInput{UserID: "", Password: ""})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
