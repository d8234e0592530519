package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAESGCM(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		cipher, err := NewAESGCM(make([]byte, 32))

		require.NoError(t, err)
		assert.Equal(t, 16, cipher.Overhead())
	})

	t.Run("Error_InvalidKeySize", func(t *testing.T) {
		for _, size := range []int{0, 16, 24, 31, 33} {
			_, err := NewAESGCM(make([]byte, size))
			assert.Error(t, err, "size: %d", size)
		}
	})
}

func TestAESGCMCipher_EncryptDecrypt(t *testing.T) {
	cipher, err := NewAESGCM(make([]byte, 32))
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		plaintext := []byte("sensitive data")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)
		assert.Len(t, nonce, 16)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("RoundTripWithAAD", func(t *testing.T) {
		plaintext := []byte("sensitive data")
		aad := []byte("user-123")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, aad)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)

		// Decryption with mismatched AAD must fail.
		_, err = cipher.Decrypt(ciphertext, nonce, []byte("user-456"))
		assert.Error(t, err)
	})

	t.Run("Error_TamperedCiphertext", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("data"), nil)
		require.NoError(t, err)

		ciphertext[0] ^= 0xFF

		_, err = cipher.Decrypt(ciphertext, nonce, nil)
		assert.Error(t, err)
	})

	t.Run("NonceUniqueness", func(t *testing.T) {
		_, first, err := cipher.Encrypt([]byte("data"), nil)
		require.NoError(t, err)
		_, second, err := cipher.Encrypt([]byte("data"), nil)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}
