package crypto

import "errors"

// Crypto package errors.
var (
	// ErrInvalidKeyLength is returned when a key or public key buffer is
	// not the expected size.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length")

	// ErrAuthenticationFailed is returned when AEAD decryption fails:
	// tampered ciphertext, wrong key, truncated tag, or wrong nonce
	// length.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")
)
