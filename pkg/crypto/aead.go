package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
)

// Envelope is an encrypted payload: a fresh random nonce plus the AEAD
// ciphertext (plaintext length + AEADTagLength).
type Envelope struct {
	Nonce      [NonceLength]byte
	Ciphertext []byte
}

// Encrypt seals plaintext under key with a fresh random 24-byte nonce.
func Encrypt(plaintext, key []byte) (*Envelope, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	env := &Envelope{}
	if _, err := rand.Read(env.Nonce[:]); err != nil {
		return nil, err
	}

	env.Ciphertext = aead.Seal(nil, env.Nonce[:], plaintext, nil)
	return env, nil
}

// Decrypt opens an Envelope under key. Any tampering, wrong key, or
// malformed nonce/ciphertext yields ErrAuthenticationFailed.
func Decrypt(env *Envelope, key []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	if len(env.Nonce) != NonceLength {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := aead.Open(nil, env.Nonce[:], env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}

// encryptWithNonce seals plaintext under a caller-supplied nonce. Used
// only by tests that need the deterministic cross-platform AEAD vector;
// production code always calls Encrypt, which picks its own nonce.
func encryptWithNonce(plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// DecryptRaw opens ciphertext given a raw nonce byte slice, for callers
// that have already split a wire frame into nonce/ciphertext parts
// (e.g. the binary DATA frame decoder, or the AUTH proof decoder).
func DecryptRaw(nonce, ciphertext, key []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if len(nonce) != NonceLength {
		return nil, ErrAuthenticationFailed
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}
