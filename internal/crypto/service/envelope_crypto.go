package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
)

// wrappedKeyParts is the number of colon-separated components in a wrapped data key.
// Unlike field envelopes, wrapped keys carry no version component: there is exactly
// one master key per deployment, indexed implicitly by configuration.
const wrappedKeyParts = 3

// EnvelopeCryptoService implements EnvelopeCipher for the configured master key.
//
// Field payloads are encrypted under caller-supplied data keys and serialized
// into the stable `keyVersion:base64(iv):base64(tag):base64(ciphertext)` wire
// format. Data keys themselves are wrapped under the master key using the same
// AEAD primitive with a three-part `base64(iv):base64(tag):base64(ciphertext)`
// format.
//
// The service is stateless apart from the injected master key and is safe for
// concurrent use.
type EnvelopeCryptoService struct {
	aeadManager AEADManager
	masterKey   *cryptoDomain.MasterKey
	algorithm   cryptoDomain.Algorithm
}

// NewEnvelopeCrypto creates a new EnvelopeCryptoService.
//
// The master key must already be validated (exactly 32 bytes); a nil master
// key fails fast with ErrInvalidMasterKey so a misconfigured deployment never
// reaches the encrypt path.
func NewEnvelopeCrypto(
	aeadManager AEADManager,
	masterKey *cryptoDomain.MasterKey,
	alg cryptoDomain.Algorithm,
) (*EnvelopeCryptoService, error) {
	if masterKey == nil || len(masterKey.Key) != cryptoDomain.MasterKeySize {
		return nil, cryptoDomain.ErrInvalidMasterKey
	}

	// Validate the algorithm once at construction time.
	if _, err := aeadManager.CreateCipher(masterKey.Key, alg); err != nil {
		return nil, err
	}

	return &EnvelopeCryptoService{
		aeadManager: aeadManager,
		masterKey:   masterKey,
		algorithm:   alg,
	}, nil
}

// Encrypt encrypts a field payload under the data key and serializes the
// versioned envelope.
//
// A fresh random IV is generated for every call; the authentication tag is
// split out of the AEAD output so the envelope carries IV, tag and ciphertext
// as separate base64 components.
func (e *EnvelopeCryptoService) Encrypt(plaintext, dataKey []byte, keyVersion uint) (string, error) {
	aead, err := e.aeadManager.CreateCipher(dataKey, e.algorithm)
	if err != nil {
		return "", err
	}

	sealed, iv, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt payload: %w", err)
	}

	ciphertext, tag := splitTag(sealed, aead.Overhead())

	envelope := cryptoDomain.NewEnvelope(
		keyVersion,
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ciphertext),
	)

	return envelope.Serialize(), nil
}

// Decrypt parses the envelope and decrypts its payload with the data key.
//
// Returns ErrInvalidEnvelopeFormat when the envelope cannot be parsed and a
// uniform ErrAuthenticationFailed for any authenticated-decryption failure,
// deliberately not distinguishing a wrong key from corrupted ciphertext.
func (e *EnvelopeCryptoService) Decrypt(envelope string, dataKey []byte) ([]byte, error) {
	parsed, err := cryptoDomain.ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	iv, tag, ciphertext, err := decodeComponents(parsed.IV, parsed.AuthTag, parsed.Ciphertext)
	if err != nil {
		return nil, err
	}

	aead, err := e.aeadManager.CreateCipher(dataKey, e.algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(joinTag(ciphertext, tag), iv, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}

	return plaintext, nil
}

// WrapKey encrypts a raw 32-byte data key under the master key.
func (e *EnvelopeCryptoService) WrapKey(rawKey []byte) (string, error) {
	if len(rawKey) != 32 {
		return "", cryptoDomain.ErrInvalidKeySize
	}

	aead, err := e.aeadManager.CreateCipher(e.masterKey.Key, e.algorithm)
	if err != nil {
		return "", err
	}

	sealed, iv, err := aead.Encrypt(rawKey, nil)
	if err != nil {
		return "", fmt.Errorf("failed to wrap data key: %w", err)
	}

	ciphertext, tag := splitTag(sealed, aead.Overhead())

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, ":"), nil
}

// UnwrapKey recovers a raw data key from its wrapped form.
//
// Returns ErrInvalidEnvelopeFormat for a malformed wrapped key and
// ErrAuthenticationFailed when the master key cannot authenticate it.
func (e *EnvelopeCryptoService) UnwrapKey(wrapped string) ([]byte, error) {
	parts := strings.Split(wrapped, ":")
	if len(parts) != wrappedKeyParts {
		return nil, fmt.Errorf(
			"%w: wrapped key must have %d parts, got %d",
			cryptoDomain.ErrInvalidEnvelopeFormat, wrappedKeyParts, len(parts),
		)
	}

	iv, tag, ciphertext, err := decodeComponents(parts[0], parts[1], parts[2])
	if err != nil {
		return nil, err
	}

	aead, err := e.aeadManager.CreateCipher(e.masterKey.Key, e.algorithm)
	if err != nil {
		return nil, err
	}

	rawKey, err := aead.Decrypt(joinTag(ciphertext, tag), iv, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}

	return rawKey, nil
}

// GenerateDataKey mints a fresh random 32-byte data key and wraps it under
// the master key. The raw key is returned for immediate use and must be
// zeroed by the caller when no longer needed.
func (e *EnvelopeCryptoService) GenerateDataKey() ([]byte, string, error) {
	rawKey := make([]byte, 32)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, "", fmt.Errorf("failed to generate data key: %w", err)
	}

	wrapped, err := e.WrapKey(rawKey)
	if err != nil {
		cryptoDomain.Zero(rawKey)
		return nil, "", err
	}

	return rawKey, wrapped, nil
}

// splitTag separates the authentication tag the AEAD appended to the sealed output.
func splitTag(sealed []byte, overhead int) (ciphertext, tag []byte) {
	split := len(sealed) - overhead
	return sealed[:split], sealed[split:]
}

// joinTag recombines ciphertext and tag into the form cipher.AEAD.Open expects.
func joinTag(ciphertext, tag []byte) []byte {
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	return append(sealed, tag...)
}

// decodeComponents base64-decodes the iv, tag and ciphertext envelope parts.
// Any decode failure is a format error, not an authentication failure.
func decodeComponents(ivB64, tagB64, ciphertextB64 string) (iv, tag, ciphertext []byte, err error) {
	if iv, err = base64.StdEncoding.DecodeString(ivB64); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: invalid iv encoding", cryptoDomain.ErrInvalidEnvelopeFormat)
	}
	if tag, err = base64.StdEncoding.DecodeString(tagB64); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: invalid tag encoding", cryptoDomain.ErrInvalidEnvelopeFormat)
	}
	if ciphertext, err = base64.StdEncoding.DecodeString(ciphertextB64); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: invalid ciphertext encoding", cryptoDomain.ErrInvalidEnvelopeFormat)
	}
	return iv, tag, ciphertext, nil
}
