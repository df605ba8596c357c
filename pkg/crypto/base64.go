package crypto

import "encoding/base64"

// b64 is URL-safe, unpadded base64: never emits '+', '/', or '='.
var b64 = base64.RawURLEncoding

// ToBase64 encodes data as URL-safe, unpadded base64.
func ToBase64(data []byte) string {
	return b64.EncodeToString(data)
}

// FromBase64 decodes a URL-safe, unpadded base64 string.
func FromBase64(s string) ([]byte, error) {
	return b64.DecodeString(s)
}
