package domain

import (
	"time"

	"github.com/google/uuid"
)

// SecurityEvent is one record of the append-only security event stream.
// UserID, IPAddress and UserAgent are optional; Metadata carries free-form
// context such as the internal reason behind a generic rejection.
type SecurityEvent struct {
	ID        uuid.UUID
	Type      EventType
	UserID    string
	IPAddress string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}

// EventFilter narrows security event queries. Zero values mean "any".
type EventFilter struct {
	Type   EventType
	UserID string
	Start  time.Time
	End    time.Time
	Limit  int
}

// EventStats aggregates security events over a date range.
type EventStats struct {
	CountsByType    map[EventType]int
	LockedAccounts  int // accounts currently locked, independent of the range
	SuspiciousCount int // SUSPICIOUS_ACTIVITY events within the range
}
