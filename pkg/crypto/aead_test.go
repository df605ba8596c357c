package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

// TestEncryptDecryptRoundTrip checks spec invariant #1: decrypt(encrypt(p,
// k), k) == p for plaintexts up to 4 KiB, with the expected length
// relationship and nonce size.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randomKey(t)

	sizes := []int{0, 1, 16, 255, 4096}
	for _, size := range sizes {
		plaintext := make([]byte, size)
		if _, err := rand.Read(plaintext); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}

		env, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("Encrypt(size=%d): %v", size, err)
		}
		if len(env.Nonce) != NonceLength {
			t.Errorf("size=%d: nonce length = %d, want %d", size, len(env.Nonce), NonceLength)
		}
		if len(env.Ciphertext) != size+AEADTagLength {
			t.Errorf("size=%d: ciphertext length = %d, want %d", size, len(env.Ciphertext), size+AEADTagLength)
		}

		got, err := Decrypt(env, key)
		if err != nil {
			t.Fatalf("Decrypt(size=%d): %v", size, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("size=%d: round trip mismatch", size)
		}
	}
}

// TestNonceUniqueness checks spec invariant #2: 200 successive Encrypt
// calls under one key produce 200 distinct nonces.
func TestNonceUniqueness(t *testing.T) {
	key := randomKey(t)
	seen := make(map[[NonceLength]byte]bool)

	for i := 0; i < 200; i++ {
		env, err := Encrypt([]byte("shared plaintext"), key)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if seen[env.Nonce] {
			t.Fatalf("duplicate nonce at iteration %d", i)
		}
		seen[env.Nonce] = true
	}
}

// TestTamperDetection checks spec invariant #4: flipping any bit in the
// ciphertext, or using a different key, fails decryption.
func TestTamperDetection(t *testing.T) {
	key := randomKey(t)
	env, err := Encrypt([]byte("tamper me"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tampered := &Envelope{Nonce: env.Nonce, Ciphertext: append([]byte(nil), env.Ciphertext...)}
	tampered.Ciphertext[0] ^= 0x01
	if _, err := Decrypt(tampered, key); err != ErrAuthenticationFailed {
		t.Errorf("tampered ciphertext: got %v, want ErrAuthenticationFailed", err)
	}

	otherKey := randomKey(t)
	if _, err := Decrypt(env, otherKey); err != ErrAuthenticationFailed {
		t.Errorf("wrong key: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestDecryptRejectsBadKeyLength(t *testing.T) {
	env, err := Encrypt([]byte("x"), randomKey(t))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(env, make([]byte, 16)); err != ErrInvalidKeyLength {
		t.Errorf("got %v, want ErrInvalidKeyLength", err)
	}
}

// TestDeterministicAEADVector checks the fixed AEAD test vector (S2):
// key = serverRx from the KX vector, fixed 24-byte nonce 0x40..0x57,
// plaintext "ShareGo test vector".
func TestDeterministicAEADVector(t *testing.T) {
	client, err := keyPairFromSeed(seed(0, 0x00))
	if err != nil {
		t.Fatalf("client keypair: %v", err)
	}
	server, err := keyPairFromSeed(seed(0, 0x80))
	if err != nil {
		t.Fatalf("server keypair: %v", err)
	}
	serverRx, err := DeriveSharedKey(server, client.PublicKey[:], true)
	if err != nil {
		t.Fatalf("DeriveSharedKey: %v", err)
	}

	nonce := seed(0, 0x40)

	ciphertext, err := encryptWithNonce([]byte("ShareGo test vector"), serverRx[:], nonce[:NonceLength])
	if err != nil {
		t.Fatalf("encryptWithNonce: %v", err)
	}

	want := "6j_YoyDCQsRijyyCYeIg1T7rc2Bu4waAzo3e1hTzV_EHeks"
	if got := ToBase64(ciphertext); got != want {
		t.Errorf("ciphertext = %s, want %s", got, want)
	}
}
