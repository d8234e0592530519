// Package domain defines the security state domain models.
// Covers sessions, account lockout counters and the append-only security
// event stream used for auditing and suspicious-activity detection.
package domain

// EventType identifies a kind of security event.
type EventType string

const (
	// LoginSuccess records a successful credential verification.
	LoginSuccess EventType = "LOGIN_SUCCESS"

	// LoginFailed records a rejected authentication attempt.
	LoginFailed EventType = "LOGIN_FAILED"

	// AccountLocked records a lockout triggered by repeated failures.
	AccountLocked EventType = "ACCOUNT_LOCKED"

	// AccountUnlocked records an explicit unlock of a locked account.
	AccountUnlocked EventType = "ACCOUNT_UNLOCKED"

	// PasswordChanged records a credential change.
	PasswordChanged EventType = "PASSWORD_CHANGED"

	// SuspiciousActivity records a pattern flagged by the monitor.
	SuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"

	// ForcedLogout records the termination of all sessions for a user.
	ForcedLogout EventType = "FORCED_LOGOUT"

	// SessionCreated records a new session.
	SessionCreated EventType = "SESSION_CREATED"

	// SessionExpired records a session removed after exceeding the
	// inactivity window.
	SessionExpired EventType = "SESSION_EXPIRED"
)
