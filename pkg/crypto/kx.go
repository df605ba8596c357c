package crypto

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/curve25519"
)

// DeriveSharedKey performs an X25519 Diffie-Hellman exchange and derives
// the symmetric session key from it via BLAKE2b-512.
//
// The BLAKE2b-512 digest is computed over `q || clientPublicKey ||
// serverPublicKey`, where "client" is always the sender's role and
// "server" is always the receiver's role regardless of which side is
// computing the key. Both sides take the last 32 bytes of the digest as
// the shared key — this is a deliberate departure from libsodium's
// documented rx/tx split, locked to the cross-platform test vectors
// (see the crypto package tests for the canonical values).
//
// isReceiver indicates whether ourKp belongs to the receiver (CHALLENGE
// sender) or the sender (HELLO sender) role in the handshake.
func DeriveSharedKey(ourKp *KeyPair, theirPublicKey []byte, isReceiver bool) ([KeyLength]byte, error) {
	var key [KeyLength]byte

	if len(theirPublicKey) != PublicKeyLength {
		return key, ErrInvalidKeyLength
	}

	q, err := curve25519.X25519(ourKp.SecretKey[:], theirPublicKey)
	if err != nil {
		return key, err
	}

	var clientPk, serverPk []byte
	if isReceiver {
		clientPk = theirPublicKey
		serverPk = ourKp.PublicKey[:]
	} else {
		clientPk = ourKp.PublicKey[:]
		serverPk = theirPublicKey
	}

	transcript := make([]byte, 0, len(q)+len(clientPk)+len(serverPk))
	transcript = append(transcript, q...)
	transcript = append(transcript, clientPk...)
	transcript = append(transcript, serverPk...)

	digest := blake2b.Sum512(transcript)
	copy(key[:], digest[32:64])

	return key, nil
}
