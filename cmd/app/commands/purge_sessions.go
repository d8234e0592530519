package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	securityUseCase "github.com/keyfort/keyfort/internal/security/usecase"
)

// RunPurgeSessions bulk-removes sessions that fell outside the inactivity
// window. Session validation enforces expiry lazily on its own; this command
// is housekeeping that keeps the sessions table from accumulating dead rows.
func RunPurgeSessions(
	ctx context.Context,
	sessionUseCase securityUseCase.SessionUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	purged, err := sessionUseCase.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	logger.Info("expired sessions purged", slog.Int("purged_count", purged))
	fmt.Fprintf(writer, "Purged %d expired session(s)\n", purged)
	return nil
}
