package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"
)

// Key size constants.
const (
	// PublicKeyLength is the X25519 public key size (CRYPTO_PUBLIC_KEY_LENGTH).
	PublicKeyLength = 32

	// KeyLength is the derived symmetric session key size.
	KeyLength = 32

	// NonceLength is the XChaCha20-Poly1305 nonce size.
	NonceLength = 24

	// AEADTagLength is the Poly1305 authentication tag size.
	AEADTagLength = 16
)

// KeyPair is an ephemeral X25519 key pair. SecretKey is zeroized by the
// owning session on teardown; see pkg/zeroize.
type KeyPair struct {
	PublicKey [PublicKeyLength]byte
	SecretKey [PublicKeyLength]byte
}

// GenerateKeyPair produces a fresh X25519 key pair. Callers must not
// reuse a KeyPair across sessions.
func GenerateKeyPair() (*KeyPair, error) {
	kp := &KeyPair{}
	if _, err := rand.Read(kp.SecretKey[:]); err != nil {
		return nil, err
	}

	pub, err := curve25519.X25519(kp.SecretKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.PublicKey[:], pub)

	return kp, nil
}

// KeyPairFromSecretKey rebuilds a KeyPair's public half from a given
// 32-byte secret scalar. Used by tests that need deterministic
// cross-platform key-exchange vectors.
func KeyPairFromSecretKey(secretKey [32]byte) (*KeyPair, error) {
	kp := &KeyPair{SecretKey: secretKey}
	pub, err := curve25519.X25519(kp.SecretKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}
