package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	securityUseCase "github.com/keyfort/keyfort/internal/security/usecase"
)

// RunForceLogout terminates every session a user has. Used both for "logout
// everywhere" requests and for administrative response to a compromised
// account.
func RunForceLogout(
	ctx context.Context,
	sessionUseCase securityUseCase.SessionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
) error {
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}

	terminated, err := sessionUseCase.TerminateAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to terminate sessions: %w", err)
	}

	logger.Info("forced logout",
		slog.String("user_id", userID),
		slog.Int("terminated_count", terminated),
	)
	fmt.Fprintf(writer, "Terminated %d session(s) for user %q\n", terminated, userID)
	return nil
}
