package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	cryptoUseCase "github.com/keyfort/keyfort/internal/crypto/usecase"
)

// rotationStatusOutput is the JSON shape of the rotation-status command.
type rotationStatusOutput struct {
	CurrentVersion      uint       `json:"current_version"`
	LastRotation        *time.Time `json:"last_rotation,omitempty"`
	NextRotationDue     time.Time  `json:"next_rotation_due"`
	KeysPendingRotation int        `json:"keys_pending_rotation"`
	RotationDue         bool       `json:"rotation_due"`
}

// RunRotationStatus prints the current key rotation schedule state.
// Format can be "text" or "json".
func RunRotationStatus(
	ctx context.Context,
	rotationUseCase cryptoUseCase.RotationUseCase,
	writer io.Writer,
	format string,
) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	status, err := rotationUseCase.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get rotation status: %w", err)
	}

	due, err := rotationUseCase.ShouldRotate(ctx)
	if err != nil {
		return fmt.Errorf("failed to check rotation schedule: %w", err)
	}

	if format == "json" {
		return printRotationStatusJSON(writer, status, due)
	}
	return printRotationStatusText(writer, status, due)
}

func printRotationStatusText(w io.Writer, status *cryptoDomain.RotationStatus, due bool) error {
	fmt.Fprintln(w, "Key rotation status")
	fmt.Fprintf(w, "  Current key version:    %d\n", status.CurrentVersion)
	if status.LastRotation != nil {
		fmt.Fprintf(w, "  Last rotation:          %s\n", status.LastRotation.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "  Last rotation:          never")
	}
	fmt.Fprintf(w, "  Next rotation due:      %s\n", status.NextRotationDue.Format(time.RFC3339))
	fmt.Fprintf(w, "  Keys pending rotation:  %d\n", status.KeysPendingRotation)
	fmt.Fprintf(w, "  Rotation due now:       %t\n", due)
	return nil
}

func printRotationStatusJSON(w io.Writer, status *cryptoDomain.RotationStatus, due bool) error {
	output := rotationStatusOutput{
		CurrentVersion:      status.CurrentVersion,
		LastRotation:        status.LastRotation,
		NextRotationDue:     status.NextRotationDue,
		KeysPendingRotation: status.KeysPendingRotation,
		RotationDue:         due,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("failed to encode rotation status: %w", err)
	}
	return nil
}
