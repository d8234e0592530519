package usecase

import (
	"context"
	"log/slog"
	"time"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// accountLockUseCase implements AccountLockUseCase.
//
// Lockout is a per-user counter state machine. All state lives in the user
// security store, so no cross-user locking is needed; concurrent failures for
// the same user at worst lock the account one attempt early or late.
type accountLockUseCase struct {
	userRepo     UserSecurityRepository
	monitor      MonitorUseCase
	logger       *slog.Logger
	maxAttempts  int
	lockDuration time.Duration
	resetWindow  time.Duration
}

// NewAccountLockUseCase creates a new AccountLockUseCase instance.
func NewAccountLockUseCase(
	userRepo UserSecurityRepository,
	monitor MonitorUseCase,
	logger *slog.Logger,
	maxAttempts int,
	lockDuration time.Duration,
	resetWindow time.Duration,
) AccountLockUseCase {
	return &accountLockUseCase{
		userRepo:     userRepo,
		monitor:      monitor,
		logger:       logger,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		resetWindow:  resetWindow,
	}
}

// RecordFailedLogin increments the failure counter and reports whether the
// account is now locked.
func (a *accountLockUseCase) RecordFailedLogin(ctx context.Context, userID string) (bool, error) {
	user, err := a.userRepo.FindByUserID(ctx, userID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()

	// A failure while already locked does not extend the lock.
	if user.IsLocked(now) {
		return true, nil
	}

	attempts := user.FailedLoginAttempts
	if user.ShouldResetAttempts(now, a.resetWindow) {
		attempts = 0
	}
	attempts++

	update := securityDomain.UserSecurityUpdate{
		FailedLoginAttempts: &attempts,
		LastFailedAttempt:   &now,
	}

	locked := attempts >= a.maxAttempts
	if locked {
		lockedUntil := now.Add(a.lockDuration)
		update.LockedUntil = &lockedUntil
	}

	if err := a.userRepo.Update(ctx, userID, update); err != nil {
		return false, err
	}

	if locked {
		a.recordEvent(ctx, securityDomain.AccountLocked, userID, map[string]any{
			"failed_attempts": attempts,
			"locked_until":    update.LockedUntil.Format(time.RFC3339),
		})
	}

	return locked, nil
}

// IsLocked reports whether the account is locked right now.
func (a *accountLockUseCase) IsLocked(ctx context.Context, userID string) (bool, error) {
	user, err := a.userRepo.FindByUserID(ctx, userID)
	if err != nil {
		return false, err
	}

	return user.IsLocked(time.Now().UTC()), nil
}

// Unlock clears the failure counter and lock deadline.
func (a *accountLockUseCase) Unlock(ctx context.Context, userID string) error {
	zero := 0
	update := securityDomain.UserSecurityUpdate{
		FailedLoginAttempts: &zero,
		ClearLock:           true,
		ClearLastFailed:     true,
	}

	if err := a.userRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	a.recordEvent(ctx, securityDomain.AccountUnlocked, userID, nil)

	return nil
}

// ResetAttempts clears the failure counter after a successful login.
func (a *accountLockUseCase) ResetAttempts(ctx context.Context, userID string) error {
	zero := 0
	return a.userRepo.Update(ctx, userID, securityDomain.UserSecurityUpdate{
		FailedLoginAttempts: &zero,
		ClearLastFailed:     true,
	})
}

// LockedAccounts lists accounts currently locked.
func (a *accountLockUseCase) LockedAccounts(ctx context.Context) ([]*securityDomain.UserSecurity, error) {
	return a.userRepo.FindLocked(ctx, time.Now().UTC())
}

// recordEvent appends a security event, logging instead of failing the
// caller's operation when persistence fails.
func (a *accountLockUseCase) recordEvent(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID string,
	metadata map[string]any,
) {
	if err := a.monitor.Record(ctx, eventType, userID, "", "", metadata); err != nil {
		a.logger.Warn("failed to record security event",
			slog.String("event_type", string(eventType)),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
