package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data
// (AEAD), ensuring both confidentiality and authenticity of encrypted data.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// This is the canonical algorithm for field envelopes: 256-bit key,
	// 16-byte IV (matching the stable envelope wire format) and a 16-byte
	// authentication tag. Hardware-accelerated on CPUs with AES-NI.
	AESGCM Algorithm = "aes-256-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// Constant-time software implementation with a 256-bit key, 12-byte nonce
	// and 16-byte tag. Preferred on platforms without AES hardware acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)
