package domain

import (
	"github.com/keyfort/keyfort/internal/errors"
)

// Security state errors.
var (
	// ErrUserNotFound indicates no security state exists for the user.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrSessionNotFound indicates a session with the specified ID was not found.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrInvalidSession indicates an operation targeted a session that does
	// not exist.
	ErrInvalidSession = errors.Wrap(errors.ErrUnauthorized, "invalid session")

	// ErrInvalidCredentials is the single generic rejection surfaced by the
	// login flow. It deliberately covers wrong password, unknown user and
	// locked account so callers cannot enumerate accounts; the precise
	// reason is recorded in the security event stream.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")
)
