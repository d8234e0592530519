// Package mocks provides mock implementations for testing cryptographic services.
package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockEnvelopeCipher is a mock implementation of EnvelopeCipher for testing.
type MockEnvelopeCipher struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of EnvelopeCipher.
func (m *MockEnvelopeCipher) Encrypt(plaintext, dataKey []byte, keyVersion uint) (string, error) {
	args := m.Called(plaintext, dataKey, keyVersion)
	return args.String(0), args.Error(1)
}

// Decrypt mocks the Decrypt method of EnvelopeCipher.
func (m *MockEnvelopeCipher) Decrypt(envelope string, dataKey []byte) ([]byte, error) {
	args := m.Called(envelope, dataKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// WrapKey mocks the WrapKey method of EnvelopeCipher.
func (m *MockEnvelopeCipher) WrapKey(rawKey []byte) (string, error) {
	args := m.Called(rawKey)
	return args.String(0), args.Error(1)
}

// UnwrapKey mocks the UnwrapKey method of EnvelopeCipher.
func (m *MockEnvelopeCipher) UnwrapKey(wrapped string) ([]byte, error) {
	args := m.Called(wrapped)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// GenerateDataKey mocks the GenerateDataKey method of EnvelopeCipher.
func (m *MockEnvelopeCipher) GenerateDataKey() ([]byte, string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
