package usecase

import (
	"context"
	"log/slog"

	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	securityService "github.com/keyfort/keyfort/internal/security/service"
	appValidation "github.com/keyfort/keyfort/internal/validation"
)

// loginUseCase implements LoginUseCase.
//
// Order matters on this path: the lockout check runs before credential
// verification, so a locked account is rejected regardless of whether the
// password is correct. Every rejection surfaces as ErrInvalidCredentials
// while the internal reason goes to the event stream.
type loginUseCase struct {
	userRepo UserSecurityRepository
	lock     AccountLockUseCase
	monitor  MonitorUseCase
	session  SessionUseCase
	password securityService.PasswordService
	logger   *slog.Logger
}

// NewLoginUseCase creates a new LoginUseCase instance.
func NewLoginUseCase(
	userRepo UserSecurityRepository,
	lock AccountLockUseCase,
	monitor MonitorUseCase,
	session SessionUseCase,
	password securityService.PasswordService,
	logger *slog.Logger,
) LoginUseCase {
	return &loginUseCase{
		userRepo: userRepo,
		lock:     lock,
		monitor:  monitor,
		session:  session,
		password: password,
		logger:   logger,
	}
}

// Login authenticates the user and returns a new session.
func (l *loginUseCase) Login(
	ctx context.Context,
	input *securityDomain.LoginInput,
) (*securityDomain.Session, error) {
	if err := appValidation.WrapValidationError(input.Validate()); err != nil {
		return nil, err
	}

	user, err := l.userRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		if apperrors.Is(err, securityDomain.ErrUserNotFound) {
			return nil, l.reject(ctx, input, "unknown user")
		}
		return nil, err
	}

	locked, err := l.lock.IsLocked(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, l.reject(ctx, input, "account locked")
	}

	if !l.password.Verify(input.Password, user.PasswordHash) {
		if _, err := l.lock.RecordFailedLogin(ctx, input.UserID); err != nil {
			return nil, err
		}
		if _, err := l.monitor.DetectSuspicious(ctx, input.UserID, input.IPAddress); err != nil {
			l.logger.Warn("suspicious activity detection failed",
				slog.String("user_id", input.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, l.reject(ctx, input, "invalid password")
	}

	if err := l.lock.ResetAttempts(ctx, input.UserID); err != nil {
		return nil, err
	}

	session, err := l.session.CreateSession(ctx, input.UserID, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	l.recordEvent(ctx, securityDomain.LoginSuccess, input, map[string]any{
		"session_id": session.ID.String(),
	})

	return session, nil
}

// reject records a LOGIN_FAILED event with the internal reason and returns
// the generic credential error.
func (l *loginUseCase) reject(
	ctx context.Context,
	input *securityDomain.LoginInput,
	reason string,
) error {
	l.recordEvent(ctx, securityDomain.LoginFailed, input, map[string]any{
		"reason": reason,
	})
	return securityDomain.ErrInvalidCredentials
}

// recordEvent appends a security event, logging instead of failing the login
// flow when persistence fails.
func (l *loginUseCase) recordEvent(
	ctx context.Context,
	eventType securityDomain.EventType,
	input *securityDomain.LoginInput,
	metadata map[string]any,
) {
	if err := l.monitor.Record(ctx, eventType, input.UserID, input.IPAddress, input.UserAgent, metadata); err != nil {
		l.logger.Warn("failed to record security event",
			slog.String("event_type", string(eventType)),
			slog.String("user_id", input.UserID),
			slog.String("error", err.Error()),
		)
	}
}
