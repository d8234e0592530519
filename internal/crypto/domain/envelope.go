package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// envelopeParts is the number of colon-separated components in a serialized envelope.
const envelopeParts = 4

// CiphertextEnvelope is the value object for a single encrypted field payload.
//
// The wire format is `keyVersion:base64(iv):base64(authTag):base64(ciphertext)`
// and must remain bit-exact across implementations: the embedded key version is
// how decryption selects the correct data key, and rotation identifies stale
// records. The envelope is immutable once constructed.
type CiphertextEnvelope struct {
	Version    uint   // Data key version the payload was encrypted under
	IV         string // Base64-encoded initialization vector
	AuthTag    string // Base64-encoded authentication tag
	Ciphertext string // Base64-encoded ciphertext
}

// ParseEnvelope parses a serialized envelope string.
// Returns ErrInvalidEnvelopeFormat if the input does not have exactly four
// non-empty colon-separated parts or the version is not a valid integer.
func ParseEnvelope(serialized string) (CiphertextEnvelope, error) {
	parts := strings.Split(serialized, ":")
	if len(parts) != envelopeParts {
		return CiphertextEnvelope{}, fmt.Errorf(
			"%w: expected %d parts, got %d", ErrInvalidEnvelopeFormat, envelopeParts, len(parts),
		)
	}

	for _, part := range parts {
		if part == "" {
			return CiphertextEnvelope{}, fmt.Errorf(
				"%w: missing envelope component", ErrInvalidEnvelopeFormat,
			)
		}
	}

	version, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return CiphertextEnvelope{}, fmt.Errorf(
			"%w: invalid key version %q", ErrInvalidEnvelopeFormat, parts[0],
		)
	}

	return CiphertextEnvelope{
		Version:    uint(version),
		IV:         parts[1],
		AuthTag:    parts[2],
		Ciphertext: parts[3],
	}, nil
}

// NewEnvelope constructs an envelope from its components.
func NewEnvelope(version uint, iv, authTag, ciphertext string) CiphertextEnvelope {
	return CiphertextEnvelope{
		Version:    version,
		IV:         iv,
		AuthTag:    authTag,
		Ciphertext: ciphertext,
	}
}

// Serialize returns the canonical wire representation of the envelope.
func (e CiphertextEnvelope) Serialize() string {
	return fmt.Sprintf("%d:%s:%s:%s", e.Version, e.IV, e.AuthTag, e.Ciphertext)
}
