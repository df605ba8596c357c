package crypto

import (
	"crypto/rand"
	"crypto/subtle"
)

// SessionIdAlphabet is the 32-symbol alphabet used for generated
// session ids: uppercase letters and digits, minus the visually
// ambiguous 0/O/1/I.
const SessionIdAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SessionIdLength is the number of characters in a generated session id.
const SessionIdLength = 6

// GenerateSessionId returns a 6-character session id drawn uniformly
// from SessionIdAlphabet.
func GenerateSessionId() (string, error) {
	alphabetLen := len(SessionIdAlphabet)
	// Reject bytes at or past the last full multiple of alphabetLen so
	// the modulo reduction stays unbiased. With the 32-symbol alphabet
	// 256 is an exact multiple and no byte is rejected.
	limit := 256 / alphabetLen * alphabetLen

	out := make([]byte, SessionIdLength)
	var buf [1]byte
	for i := 0; i < SessionIdLength; {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", err
		}
		if int(buf[0]) >= limit {
			continue
		}
		out[i] = SessionIdAlphabet[int(buf[0])%alphabetLen]
		i++
	}
	return string(out), nil
}

// GenerateNonce32 returns 32 random bytes, used as the receiver's
// authentication challenge.
func GenerateNonce32() ([32]byte, error) {
	var n [32]byte
	_, err := rand.Read(n[:])
	return n, err
}

// ConstantTimeEqual compares a and b in time proportional to
// max(len(a), len(b)), mixing a length mismatch into the result instead
// of short-circuiting on it.
func ConstantTimeEqual(a, b []byte) bool {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	padded := func(buf []byte) []byte {
		if len(buf) == longest {
			return buf
		}
		out := make([]byte, longest)
		copy(out, buf)
		return out
	}

	lengthsMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	valuesMatch := subtle.ConstantTimeCompare(padded(a), padded(b))

	return lengthsMatch&valuesMatch == 1
}
