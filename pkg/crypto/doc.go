// Package crypto provides the cryptographic primitives for ShareGo's
// end-to-end encrypted pairing channel: X25519 key agreement with a
// BLAKE2b-derived session key, XChaCha20-Poly1305 AEAD, constant-time
// comparison, session id generation, and URL-safe base64 encoding.
package crypto
