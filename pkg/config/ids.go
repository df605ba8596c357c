package config

import (
	"fmt"
	"regexp"
)

// SessionId is the 6-character human-typeable identifier for a pairing
// attempt, drawn from SessionCodeAlphabet.
type SessionId string

// IsValid returns true if the session id has the expected length and
// every character is in SessionCodeAlphabet.
func (s SessionId) IsValid() bool {
	if len(s) != SessionCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphabetChar(s[i]) {
			return false
		}
	}
	return true
}

func (s SessionId) String() string {
	return string(s)
}

func isAlphabetChar(c byte) bool {
	for i := 0; i < len(SessionCodeAlphabet); i++ {
		if SessionCodeAlphabet[i] == c {
			return true
		}
	}
	return false
}

// networkAddressPattern matches the shape of "ipv4:port" and
// "ws://ipv4:port"; ParseNetworkAddress then rejects octets outside
// 0-255, leading zeros, and ports outside 1-65535. Together they are
// intentionally stricter than net.ResolveTCPAddr, which accepts
// hostnames and IPv6 forms ShareGo's LAN transport never uses.
var networkAddressPattern = regexp.MustCompile(
	`^(?:ws://)?(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3}):(\d{1,5})$`)

// NetworkAddress is a validated "ip:port" (optionally "ws://ip:port")
// peer address string.
type NetworkAddress string

// ParseNetworkAddress validates raw and returns it as a NetworkAddress.
func ParseNetworkAddress(raw string) (NetworkAddress, error) {
	m := networkAddressPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("config: invalid network address %q", raw)
	}
	for _, octet := range m[1:5] {
		if len(octet) > 1 && octet[0] == '0' {
			return "", fmt.Errorf("config: invalid network address %q: leading zero in octet", raw)
		}
		if !inRangeDecimal(octet, 0, 255) {
			return "", fmt.Errorf("config: invalid network address %q: octet out of range", raw)
		}
	}
	if !inRangeDecimal(m[5], 1, 65535) {
		return "", fmt.Errorf("config: invalid network address %q: port out of range", raw)
	}
	return NetworkAddress(raw), nil
}

func inRangeDecimal(s string, lo, hi int) bool {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		n = n*10 + int(s[i]-'0')
		if n > hi {
			return false
		}
	}
	return n >= lo && n <= hi
}

func (a NetworkAddress) String() string {
	return string(a)
}

// Base64PublicKey is a URL-safe, unpadded base64 encoding of a 32-byte
// X25519 public key.
type Base64PublicKey string

// Base64Nonce is a URL-safe, unpadded base64 encoding of a 24-byte
// XChaCha20-Poly1305 nonce, or the 32-byte authentication challenge.
type Base64Nonce string

// Base64Ciphertext is a URL-safe, unpadded base64 encoding of AEAD
// ciphertext (including the 16-byte tag).
type Base64Ciphertext string

// Base64Proof is a URL-safe, unpadded base64 encoding of the AUTH
// message's `nonce || ciphertext` proof payload.
type Base64Proof string

// SequenceNumber is a monotonically increasing per-session message
// counter, valid in the range [1, 2^32-1]. The zero value means "none
// seen yet".
type SequenceNumber uint32

// MaxSequenceNumber is the last valid sequence number before overflow.
const MaxSequenceNumber SequenceNumber = 1<<32 - 1
