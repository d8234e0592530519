package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/keyfort/keyfort/internal/database"
	apperrors "github.com/keyfort/keyfort/internal/errors"
	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// sessionUseCase implements SessionUseCase.
//
// Expiry is enforced lazily: Validate and ActiveSessions apply the inactivity
// window themselves, so correctness never depends on the PurgeExpired sweep
// having run.
type sessionUseCase struct {
	sessionRepo      SessionRepository
	txManager        database.TxManager
	monitor          MonitorUseCase
	logger           *slog.Logger
	maxSessions      int
	inactivityWindow time.Duration
}

// NewSessionUseCase creates a new SessionUseCase instance.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	txManager database.TxManager,
	monitor MonitorUseCase,
	logger *slog.Logger,
	maxSessions int,
	inactivityWindow time.Duration,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo:      sessionRepo,
		txManager:        txManager,
		monitor:          monitor,
		logger:           logger,
		maxSessions:      maxSessions,
		inactivityWindow: inactivityWindow,
	}
}

// CreateSession enforces the session cap, inserts the session and emits
// SESSION_CREATED.
func (s *sessionUseCase) CreateSession(
	ctx context.Context,
	userID, ipAddress, userAgent string,
) (*securityDomain.Session, error) {
	now := time.Now().UTC()
	session := &securityDomain.Session{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       userID,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		LastActivity: now,
		CreatedAt:    now,
	}

	// The locking read serializes concurrent creates for the same user, so
	// the cap check and the insert see a consistent session count.
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		sessions, err := s.sessionRepo.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		// Sessions arrive oldest-activity first; evict from the front until
		// the new session fits under the cap.
		for len(sessions) >= s.maxSessions {
			if err := s.sessionRepo.Delete(ctx, sessions[0].ID); err != nil {
				return err
			}
			sessions = sessions[1:]
		}

		return s.sessionRepo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, securityDomain.SessionCreated, userID, ipAddress, userAgent, map[string]any{
		"session_id": session.ID.String(),
	})

	return session, nil
}

// Validate reports whether the session exists and is within the inactivity
// window, touching LastActivity when it is.
func (s *sessionUseCase) Validate(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if apperrors.Is(err, securityDomain.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	now := time.Now().UTC()

	if session.IsExpired(now, s.inactivityWindow) {
		if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
			return false, err
		}
		s.recordEvent(ctx, securityDomain.SessionExpired, session.UserID, session.IPAddress, session.UserAgent, map[string]any{
			"session_id": sessionID.String(),
		})
		return false, nil
	}

	if err := s.sessionRepo.UpdateLastActivity(ctx, sessionID, now); err != nil {
		return false, err
	}

	return true, nil
}

// Terminate deletes a single session. Terminating a session that does not
// exist returns ErrInvalidSession.
func (s *sessionUseCase) Terminate(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.sessionRepo.FindByID(ctx, sessionID); err != nil {
		if apperrors.Is(err, securityDomain.ErrSessionNotFound) {
			return securityDomain.ErrInvalidSession
		}
		return err
	}

	return s.sessionRepo.Delete(ctx, sessionID)
}

// TerminateAll deletes every session for a user and emits FORCED_LOGOUT.
func (s *sessionUseCase) TerminateAll(ctx context.Context, userID string) (int, error) {
	count, err := s.sessionRepo.DeleteAllByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.recordEvent(ctx, securityDomain.ForcedLogout, userID, "", "", map[string]any{
		"terminated_sessions": count,
	})

	return count, nil
}

// ActiveSessions returns the user's sessions still within the inactivity
// window.
func (s *sessionUseCase) ActiveSessions(ctx context.Context, userID string) ([]*securityDomain.Session, error) {
	sessions, err := s.sessionRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	active := make([]*securityDomain.Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.IsExpired(now, s.inactivityWindow) {
			active = append(active, session)
		}
	}

	return active, nil
}

// PurgeExpired bulk-removes sessions beyond the inactivity window.
func (s *sessionUseCase) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.inactivityWindow)
	return s.sessionRepo.DeleteInactiveSince(ctx, cutoff)
}

// recordEvent appends a security event, logging instead of failing the
// caller's operation when persistence fails.
func (s *sessionUseCase) recordEvent(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID, ipAddress, userAgent string,
	metadata map[string]any,
) {
	if err := s.monitor.Record(ctx, eventType, userID, ipAddress, userAgent, metadata); err != nil {
		s.logger.Warn("failed to record security event",
			slog.String("event_type", string(eventType)),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
