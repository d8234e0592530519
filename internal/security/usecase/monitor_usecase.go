package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
)

// monitorUseCase implements MonitorUseCase over the append-only event stream.
type monitorUseCase struct {
	eventRepo           SecurityEventRepository
	userRepo            UserSecurityRepository
	logger              *slog.Logger
	suspiciousWindow    time.Duration
	suspiciousThreshold int
}

// NewMonitorUseCase creates a new MonitorUseCase instance.
func NewMonitorUseCase(
	eventRepo SecurityEventRepository,
	userRepo UserSecurityRepository,
	logger *slog.Logger,
	suspiciousWindow time.Duration,
	suspiciousThreshold int,
) MonitorUseCase {
	return &monitorUseCase{
		eventRepo:           eventRepo,
		userRepo:            userRepo,
		logger:              logger,
		suspiciousWindow:    suspiciousWindow,
		suspiciousThreshold: suspiciousThreshold,
	}
}

// Record appends a security event to the stream.
func (m *monitorUseCase) Record(
	ctx context.Context,
	eventType securityDomain.EventType,
	userID, ipAddress, userAgent string,
	metadata map[string]any,
) error {
	event := &securityDomain.SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	return m.eventRepo.Create(ctx, event)
}

// DetectSuspicious counts recent LOGIN_FAILED events for the user and flags
// the pattern when the threshold is reached.
func (m *monitorUseCase) DetectSuspicious(ctx context.Context, userID, ipAddress string) (bool, error) {
	since := time.Now().UTC().Add(-m.suspiciousWindow)

	count, err := m.eventRepo.CountByTypeAndUser(ctx, securityDomain.LoginFailed, userID, since)
	if err != nil {
		return false, err
	}

	if count < m.suspiciousThreshold {
		return false, nil
	}

	err = m.Record(ctx, securityDomain.SuspiciousActivity, userID, ipAddress, "", map[string]any{
		"failed_logins": count,
		"window":        m.suspiciousWindow.String(),
	})
	if err != nil {
		// The detection result stands even when the marker event cannot be
		// persisted.
		m.logger.Warn("failed to record suspicious activity event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return true, nil
}

// Metrics aggregates event counts by type over a date range plus the number
// of currently locked accounts.
func (m *monitorUseCase) Metrics(ctx context.Context, start, end time.Time) (*securityDomain.EventStats, error) {
	counts, err := m.eventRepo.CountByTypeInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	locked, err := m.userRepo.CountLocked(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &securityDomain.EventStats{
		CountsByType:    counts,
		LockedAccounts:  locked,
		SuspiciousCount: counts[securityDomain.SuspiciousActivity],
	}, nil
}

// RecentEvents returns the newest events up to limit.
func (m *monitorUseCase) RecentEvents(ctx context.Context, limit int) ([]*securityDomain.SecurityEvent, error) {
	return m.eventRepo.FindByFilter(ctx, securityDomain.EventFilter{Limit: limit})
}
