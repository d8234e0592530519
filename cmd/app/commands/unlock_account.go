package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	securityUseCase "github.com/keyfort/keyfort/internal/security/usecase"
)

// RunUnlockAccount clears a user's lockout state ahead of the lock deadline.
// Unlocking an account that is not locked is a no-op success.
func RunUnlockAccount(
	ctx context.Context,
	lockUseCase securityUseCase.AccountLockUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
) error {
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}

	if err := lockUseCase.Unlock(ctx, userID); err != nil {
		return fmt.Errorf("failed to unlock account: %w", err)
	}

	logger.Info("account unlocked", slog.String("user_id", userID))
	fmt.Fprintf(writer, "Account %q unlocked\n", userID)
	return nil
}
