package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordService(t *testing.T) {
	service := NewPasswordService()
	assert.NotNil(t, service)
	assert.IsType(t, &passwordService{}, service)
}

func TestPasswordService_Hash(t *testing.T) {
	service := NewPasswordService()

	t.Run("Success_ProducesPHCFormat", func(t *testing.T) {
		hashed, err := service.Hash("correct-horse")
		require.NoError(t, err)

		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, "correct-horse", hashed)
		assert.Contains(t, hashed, "$argon2id$")
	})

	t.Run("Success_SaltsEveryHash", func(t *testing.T) {
		first, err := service.Hash("correct-horse")
		require.NoError(t, err)

		second, err := service.Hash("correct-horse")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestPasswordService_Verify(t *testing.T) {
	service := NewPasswordService()

	hashed, err := service.Hash("correct-horse")
	require.NoError(t, err)

	t.Run("Success_MatchingPassword", func(t *testing.T) {
		assert.True(t, service.Verify("correct-horse", hashed))
	})

	t.Run("Failure_WrongPassword", func(t *testing.T) {
		assert.False(t, service.Verify("wrong-password", hashed))
	})

	t.Run("Failure_MalformedHash", func(t *testing.T) {
		assert.False(t, service.Verify("correct-horse", "not-a-phc-hash"))
	})

	t.Run("Failure_EmptyHash", func(t *testing.T) {
		assert.False(t, service.Verify("correct-horse", ""))
	})
}
