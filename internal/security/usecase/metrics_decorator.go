package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keyfort/keyfort/internal/metrics"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// loginUseCaseWithMetrics decorates LoginUseCase with metrics instrumentation.
type loginUseCaseWithMetrics struct {
	next    LoginUseCase
	metrics metrics.BusinessMetrics
}

// NewLoginUseCaseWithMetrics wraps a LoginUseCase with metrics recording.
func NewLoginUseCaseWithMetrics(useCase LoginUseCase, m metrics.BusinessMetrics) LoginUseCase {
	return &loginUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Login records metrics for login attempts.
func (l *loginUseCaseWithMetrics) Login(
	ctx context.Context,
	input *securityDomain.LoginInput,
) (*securityDomain.Session, error) {
	start := time.Now()
	session, err := l.next.Login(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "security", "login", status)
	l.metrics.RecordDuration(ctx, "security", "login", time.Since(start), status)

	return session, err
}

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CreateSession records metrics for session creation.
func (s *sessionUseCaseWithMetrics) CreateSession(
	ctx context.Context,
	userID, ipAddress, userAgent string,
) (*securityDomain.Session, error) {
	start := time.Now()
	session, err := s.next.CreateSession(ctx, userID, ipAddress, userAgent)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "session_create", status)
	s.metrics.RecordDuration(ctx, "security", "session_create", time.Since(start), status)

	return session, err
}

// Validate records metrics for session validation.
func (s *sessionUseCaseWithMetrics) Validate(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	start := time.Now()
	valid, err := s.next.Validate(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "session_validate", status)
	s.metrics.RecordDuration(ctx, "security", "session_validate", time.Since(start), status)

	return valid, err
}

// Terminate records metrics for single session termination.
func (s *sessionUseCaseWithMetrics) Terminate(ctx context.Context, sessionID uuid.UUID) error {
	start := time.Now()
	err := s.next.Terminate(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "session_terminate", status)
	s.metrics.RecordDuration(ctx, "security", "session_terminate", time.Since(start), status)

	return err
}

// TerminateAll records metrics for bulk session termination.
func (s *sessionUseCaseWithMetrics) TerminateAll(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	count, err := s.next.TerminateAll(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "session_terminate_all", status)
	s.metrics.RecordDuration(ctx, "security", "session_terminate_all", time.Since(start), status)

	return count, err
}

// ActiveSessions records metrics for session listing.
func (s *sessionUseCaseWithMetrics) ActiveSessions(
	ctx context.Context,
	userID string,
) ([]*securityDomain.Session, error) {
	start := time.Now()
	sessions, err := s.next.ActiveSessions(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "session_list", status)
	s.metrics.RecordDuration(ctx, "security", "session_list", time.Since(start), status)

	return sessions, err
}

// PurgeExpired records metrics for session purges.
func (s *sessionUseCaseWithMetrics) PurgeExpired(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := s.next.PurgeExpired(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", "session_purge", status)
	s.metrics.RecordDuration(ctx, "security", "session_purge", time.Since(start), status)

	return count, err
}
