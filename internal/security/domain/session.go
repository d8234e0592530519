package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an authenticated user session.
// Expiry is driven by inactivity: LastActivity is touched on every successful
// validation and a session idle beyond the configured window is deleted lazily
// by the next validation or listing, no background sweep required.
type Session struct {
	ID           uuid.UUID
	UserID       string
	IPAddress    string
	UserAgent    string
	LastActivity time.Time
	CreatedAt    time.Time
}

// IsExpired reports whether the session has been inactive longer than the
// given window.
func (s *Session) IsExpired(now time.Time, inactivityWindow time.Duration) bool {
	return now.Sub(s.LastActivity) > inactivityWindow
}
