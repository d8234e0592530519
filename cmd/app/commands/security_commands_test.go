package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	securityMocks "github.com/keyfort/keyfort/internal/security/usecase/mocks"
)

func TestRunPurgeSessions(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("success", func(t *testing.T) {
		mockUseCase := &securityMocks.MockSessionUseCase{}
		mockUseCase.On("PurgeExpired", ctx).Return(7, nil)

		var out bytes.Buffer
		err := RunPurgeSessions(ctx, mockUseCase, logger, &out)

		require.NoError(t, err)
		require.Contains(t, out.String(), "Purged 7 expired session(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("purge-error", func(t *testing.T) {
		mockUseCase := &securityMocks.MockSessionUseCase{}
		mockUseCase.On("PurgeExpired", ctx).Return(0, errors.New("boom"))

		err := RunPurgeSessions(ctx, mockUseCase, logger, &bytes.Buffer{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to purge expired sessions")
	})
}

func TestRunUnlockAccount(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("success", func(t *testing.T) {
		mockUseCase := &securityMocks.MockAccountLockUseCase{}
		mockUseCase.On("Unlock", ctx, "user-1").Return(nil)

		var out bytes.Buffer
		err := RunUnlockAccount(ctx, mockUseCase, logger, &out, "user-1")

		require.NoError(t, err)
		require.Contains(t, out.String(), `Account "user-1" unlocked`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("missing-user-id", func(t *testing.T) {
		mockUseCase := &securityMocks.MockAccountLockUseCase{}

		err := RunUnlockAccount(ctx, mockUseCase, logger, &bytes.Buffer{}, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "--user-id is required")
	})

	t.Run("unlock-error", func(t *testing.T) {
		mockUseCase := &securityMocks.MockAccountLockUseCase{}
		mockUseCase.On("Unlock", ctx, "user-1").Return(errors.New("boom"))

		err := RunUnlockAccount(ctx, mockUseCase, logger, &bytes.Buffer{}, "user-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to unlock account")
	})
}

func TestRunForceLogout(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("success", func(t *testing.T) {
		mockUseCase := &securityMocks.MockSessionUseCase{}
		mockUseCase.On("TerminateAll", ctx, "user-1").Return(3, nil)

		var out bytes.Buffer
		err := RunForceLogout(ctx, mockUseCase, logger, &out, "user-1")

		require.NoError(t, err)
		require.Contains(t, out.String(), `Terminated 3 session(s) for user "user-1"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("missing-user-id", func(t *testing.T) {
		mockUseCase := &securityMocks.MockSessionUseCase{}

		err := RunForceLogout(ctx, mockUseCase, logger, &bytes.Buffer{}, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "--user-id is required")
	})

	t.Run("terminate-error", func(t *testing.T) {
		mockUseCase := &securityMocks.MockSessionUseCase{}
		mockUseCase.On("TerminateAll", ctx, "user-1").Return(0, errors.New("boom"))

		err := RunForceLogout(ctx, mockUseCase, logger, &bytes.Buffer{}, "user-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to terminate sessions")
	})
}

func TestRunSecurityStats(t *testing.T) {
	ctx := context.Background()

	stats := &securityDomain.EventStats{
		CountsByType: map[securityDomain.EventType]int{
			securityDomain.LoginFailed:  9,
			securityDomain.LoginSuccess: 120,
		},
		LockedAccounts:  2,
		SuspiciousCount: 1,
	}

	t.Run("text-format", func(t *testing.T) {
		mockUseCase := &securityMocks.MockMonitorUseCase{}
		mockUseCase.On("Metrics", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(stats, nil)

		var out bytes.Buffer
		err := RunSecurityStats(ctx, mockUseCase, &out, 7, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "LOGIN_FAILED")
		require.Contains(t, out.String(), "Locked accounts:       2")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-format", func(t *testing.T) {
		mockUseCase := &securityMocks.MockMonitorUseCase{}
		mockUseCase.On("Metrics", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(stats, nil)

		var out bytes.Buffer
		err := RunSecurityStats(ctx, mockUseCase, &out, 30, "json")
		require.NoError(t, err)

		var decoded securityStatsOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Equal(t, 2, decoded.LockedAccounts)
		require.Equal(t, 9, decoded.CountsByType["LOGIN_FAILED"])
	})

	t.Run("empty-range", func(t *testing.T) {
		mockUseCase := &securityMocks.MockMonitorUseCase{}
		mockUseCase.On("Metrics", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(&securityDomain.EventStats{CountsByType: map[securityDomain.EventType]int{}}, nil)

		var out bytes.Buffer
		err := RunSecurityStats(ctx, mockUseCase, &out, 1, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "No events recorded in this range")
	})

	t.Run("invalid-days", func(t *testing.T) {
		mockUseCase := &securityMocks.MockMonitorUseCase{}

		err := RunSecurityStats(ctx, mockUseCase, &bytes.Buffer{}, 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "--days must be positive")
	})

	t.Run("invalid-format", func(t *testing.T) {
		mockUseCase := &securityMocks.MockMonitorUseCase{}

		err := RunSecurityStats(ctx, mockUseCase, &bytes.Buffer{}, 7, "yaml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})

	t.Run("metrics-error", func(t *testing.T) {
		mockUseCase := &securityMocks.MockMonitorUseCase{}
		mockUseCase.On("Metrics", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(nil, errors.New("boom"))

		err := RunSecurityStats(ctx, mockUseCase, &bytes.Buffer{}, 7, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to aggregate security stats")
	})
}
