// Package service provides security-related services for credential handling.
// Implements Argon2id password hashing and verification for the login flow.
package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/keyfort/keyfort/internal/errors"
)

// PasswordService hashes and verifies user passwords.
type PasswordService interface {
	// Hash hashes a plain text password using Argon2id.
	Hash(plainPassword string) (string, error)

	// Verify performs a constant-time comparison between a plain password
	// and its hash.
	Verify(plainPassword, hashedPassword string) bool
}

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordService creates a new PasswordService instance.
// Uses the Interactive policy, tuned for login-path latency.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyInteractive),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &passwordService{
		hasher: hasher,
	}
}

// Hash hashes a plain text password using Argon2id.
func (p *passwordService) Hash(plainPassword string) (string, error) {
	hashedPassword, err := p.hasher.Hash([]byte(plainPassword))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hashedPassword, nil
}

// Verify performs a constant-time comparison between a plain password and its hash.
func (p *passwordService) Verify(plainPassword, hashedPassword string) bool {
	ok, err := p.hasher.Verify([]byte(plainPassword), hashedPassword)
	if err != nil {
		return false
	}
	return ok
}
