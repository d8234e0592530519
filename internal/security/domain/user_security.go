package domain

import (
	"time"
)

// UserSecurity holds the per-user lockout state and credential hash.
// The failed-attempt counter resets when the most recent failure is older
// than the reset window, so stale failures from weeks ago never contribute
// to a lockout.
type UserSecurity struct {
	UserID              string
	PasswordHash        string
	FailedLoginAttempts int
	LastFailedAttempt   *time.Time
	LockedUntil         *time.Time
}

// IsLocked reports whether the account is locked at the given instant.
func (u *UserSecurity) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// ShouldResetAttempts reports whether the failure counter is stale: the last
// failure is older than the reset window.
func (u *UserSecurity) ShouldResetAttempts(now time.Time, resetWindow time.Duration) bool {
	if u.LastFailedAttempt == nil {
		return false
	}
	return now.Sub(*u.LastFailedAttempt) > resetWindow
}

// UserSecurityUpdate carries the mutable lockout fields for partial updates.
// Nil pointer fields are left untouched; ClearLock and ClearLastFailed
// explicitly null the corresponding columns.
type UserSecurityUpdate struct {
	FailedLoginAttempts *int
	LastFailedAttempt   *time.Time
	LockedUntil         *time.Time
	ClearLock           bool
	ClearLastFailed     bool
}
