package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoUseCase "github.com/keyfort/keyfort/internal/crypto/usecase"
)

// RunRotateKeys performs a key rotation run.
//
// By default the rotation runs unconditionally: a new data key is minted and
// activated and all field records carrying older versions are re-encrypted.
// With ifDue set, the command first checks the rotation schedule and exits
// without rotating when the active key is still within its lifetime.
func RunRotateKeys(
	ctx context.Context,
	rotationUseCase cryptoUseCase.RotationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	ifDue bool,
) error {
	if ifDue {
		due, err := rotationUseCase.ShouldRotate(ctx)
		if err != nil {
			return fmt.Errorf("failed to check rotation schedule: %w", err)
		}
		if !due {
			fmt.Fprintln(writer, "Active key is within its lifetime, nothing to do")
			return nil
		}
	}

	result, err := rotationUseCase.Rotate(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate keys: %w", err)
	}

	logger.Info("key rotation completed",
		slog.Uint64("new_version", uint64(result.NewVersion)),
		slog.Int("rotated_count", result.RotatedCount),
		slog.Int("failed_count", result.FailedCount),
		slog.Duration("duration", result.Duration),
	)

	fmt.Fprintln(writer, "Key rotation completed")
	fmt.Fprintf(writer, "  New key version:        %d\n", result.NewVersion)
	fmt.Fprintf(writer, "  Records re-encrypted:   %d\n", result.RotatedCount)
	fmt.Fprintf(writer, "  Records failed:         %d\n", result.FailedCount)
	fmt.Fprintf(writer, "  Duration:               %s\n", result.Duration)

	if result.FailedCount > 0 {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "Some records failed to re-encrypt; they keep their old key version")
		fmt.Fprintln(writer, "and will be retried by the next rotation run.")
	}

	return nil
}

// RunRotationScheduler runs the background rotation loop until the context is
// cancelled. Every checkInterval it checks whether the active key is due for
// rotation and rotates when it is. Errors are logged and the loop continues;
// a transient failure never stops the scheduler.
func RunRotationScheduler(
	ctx context.Context,
	rotationUseCase cryptoUseCase.RotationUseCase,
	logger *slog.Logger,
	checkInterval time.Duration,
) {
	logger.Info("starting rotation scheduler", slog.Duration("check_interval", checkInterval))

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping rotation scheduler")
			return
		case <-ticker.C:
			due, err := rotationUseCase.ShouldRotate(ctx)
			if err != nil {
				logger.Error("failed to check rotation schedule", slog.Any("error", err))
				continue
			}
			if !due {
				continue
			}

			result, err := rotationUseCase.Rotate(ctx)
			if err != nil {
				logger.Error("scheduled key rotation failed", slog.Any("error", err))
				continue
			}

			logger.Info("scheduled key rotation completed",
				slog.Uint64("new_version", uint64(result.NewVersion)),
				slog.Int("rotated_count", result.RotatedCount),
				slog.Int("failed_count", result.FailedCount),
				slog.Duration("duration", result.Duration),
			)
		}
	}
}
