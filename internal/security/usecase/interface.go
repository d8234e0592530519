// Package usecase defines the business logic interfaces for security state management.
//
// This package contains interface definitions for repositories and use cases
// covering account lockout, session management, security event monitoring and
// the login flow that orchestrates all three.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// SessionRepository defines the interface for session persistence.
//
// FindByUserID returns sessions ordered by LastActivity ascending (oldest
// first) so the session-cap eviction can delete from the front of the slice.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *securityDomain.Session) error

	// FindByID returns the session, or securityDomain.ErrSessionNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*securityDomain.Session, error)

	// FindByUserID returns all sessions for a user ordered by LastActivity
	// ascending.
	FindByUserID(ctx context.Context, userID string) ([]*securityDomain.Session, error)

	// FindByUserIDForUpdate is FindByUserID with row locks taken on the
	// returned sessions. Must run inside a transaction (database.GetTx);
	// concurrent callers for the same user serialize on the locks, which is
	// what makes the session-cap count-then-evict atomic.
	FindByUserIDForUpdate(ctx context.Context, userID string) ([]*securityDomain.Session, error)

	// UpdateLastActivity touches the session's LastActivity timestamp.
	UpdateLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a session. Deleting a missing session is a no-op
	// success.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAllByUserID removes every session for a user and reports how
	// many were deleted.
	DeleteAllByUserID(ctx context.Context, userID string) (int, error)

	// DeleteInactiveSince bulk-removes sessions whose LastActivity is before
	// the cutoff and reports how many were deleted.
	DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int, error)
}

// SecurityEventRepository defines the interface for the append-only security
// event stream.
type SecurityEventRepository interface {
	// Create appends an event to the stream.
	Create(ctx context.Context, event *securityDomain.SecurityEvent) error

	// FindByFilter returns events matching the filter, newest first.
	FindByFilter(ctx context.Context, filter securityDomain.EventFilter) ([]*securityDomain.SecurityEvent, error)

	// CountByTypeAndUser counts events of a type for a user since the given
	// instant. Used by suspicious-activity detection.
	CountByTypeAndUser(
		ctx context.Context,
		eventType securityDomain.EventType,
		userID string,
		since time.Time,
	) (int, error)

	// CountByTypeInRange aggregates event counts by type over a date range.
	CountByTypeInRange(ctx context.Context, start, end time.Time) (map[securityDomain.EventType]int, error)
}

// UserSecurityRepository defines the interface for per-user lockout state.
type UserSecurityRepository interface {
	// FindByUserID returns the user's security state, or
	// securityDomain.ErrUserNotFound.
	FindByUserID(ctx context.Context, userID string) (*securityDomain.UserSecurity, error)

	// Update applies the non-nil fields of a UserSecurityUpdate.
	Update(ctx context.Context, userID string, update securityDomain.UserSecurityUpdate) error

	// FindLocked returns users whose lock has not elapsed at the given
	// instant.
	FindLocked(ctx context.Context, now time.Time) ([]*securityDomain.UserSecurity, error)

	// CountLocked counts users whose lock has not elapsed at the given
	// instant.
	CountLocked(ctx context.Context, now time.Time) (int, error)
}

// AccountLockUseCase defines the account lockout engine.
//
// State machine per user: unlocked, N failed attempts within the reset
// window, locked until a deadline, unlocked again once the deadline elapses
// or an explicit unlock occurs. A locked account rejects authentication
// regardless of credential correctness.
type AccountLockUseCase interface {
	// RecordFailedLogin increments the failure counter and reports whether
	// the account is now locked. Failures older than the reset window are
	// discarded before counting. Reaching the threshold sets LockedUntil
	// and emits ACCOUNT_LOCKED; a failure while already locked does not
	// extend the lock.
	RecordFailedLogin(ctx context.Context, userID string) (bool, error)

	// IsLocked reports whether the account is locked right now.
	IsLocked(ctx context.Context, userID string) (bool, error)

	// Unlock clears the failure counter and lock deadline and emits
	// ACCOUNT_UNLOCKED. Unlocking an unlocked account is a no-op success.
	Unlock(ctx context.Context, userID string) error

	// ResetAttempts clears the failure counter after a successful login.
	ResetAttempts(ctx context.Context, userID string) error

	// LockedAccounts lists accounts currently locked.
	LockedAccounts(ctx context.Context) ([]*securityDomain.UserSecurity, error)
}

// SessionUseCase defines the session manager.
type SessionUseCase interface {
	// CreateSession enforces the per-user session cap by evicting the
	// sessions with the oldest LastActivity, inserts the new session and
	// emits SESSION_CREATED. Count, eviction and insert run in a single
	// transaction over a locking read, so concurrent creates for the same
	// user cannot exceed the cap.
	CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (*securityDomain.Session, error)

	// Validate reports whether the session exists and is within the
	// inactivity window. An expired session is deleted, SESSION_EXPIRED is
	// emitted and false is returned. A valid session gets its LastActivity
	// touched.
	Validate(ctx context.Context, sessionID uuid.UUID) (bool, error)

	// Terminate deletes a single session. Terminating a session that does
	// not exist returns ErrInvalidSession.
	Terminate(ctx context.Context, sessionID uuid.UUID) error

	// TerminateAll deletes every session for a user, emits FORCED_LOGOUT
	// and reports how many sessions were removed. Used for both "logout
	// everywhere" and administrative force-logout.
	TerminateAll(ctx context.Context, userID string) (int, error)

	// ActiveSessions returns the user's sessions still within the
	// inactivity window. Expiry is enforced lazily here, without assuming a
	// background sweep has run.
	ActiveSessions(ctx context.Context, userID string) ([]*securityDomain.Session, error)

	// PurgeExpired bulk-removes sessions beyond the inactivity window.
	// Housekeeping only; Validate and ActiveSessions self-enforce expiry.
	PurgeExpired(ctx context.Context) (int, error)
}

// MonitorUseCase defines the security event monitor.
type MonitorUseCase interface {
	// Record appends a security event. Callers on the login and session
	// paths log-and-continue on error so event persistence never fails the
	// primary operation.
	Record(
		ctx context.Context,
		eventType securityDomain.EventType,
		userID, ipAddress, userAgent string,
		metadata map[string]any,
	) error

	// DetectSuspicious counts recent LOGIN_FAILED events for the user; at
	// or above the threshold it records SUSPICIOUS_ACTIVITY and returns
	// true.
	DetectSuspicious(ctx context.Context, userID, ipAddress string) (bool, error)

	// Metrics aggregates event counts by type over a date range plus the
	// number of currently locked accounts.
	Metrics(ctx context.Context, start, end time.Time) (*securityDomain.EventStats, error)

	// RecentEvents returns the newest events up to limit.
	RecentEvents(ctx context.Context, limit int) ([]*securityDomain.SecurityEvent, error)
}

// LoginUseCase orchestrates the login path: lockout check, credential
// verification, failure accounting, suspicious-activity detection and session
// creation.
type LoginUseCase interface {
	// Login authenticates the user and returns a new session.
	//
	// Every rejection surfaces as securityDomain.ErrInvalidCredentials so
	// callers cannot distinguish wrong password, unknown user or locked
	// account; the precise reason is recorded in the event stream.
	Login(ctx context.Context, input *securityDomain.LoginInput) (*securityDomain.Session, error)
}
