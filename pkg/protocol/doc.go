// Package protocol implements the ShareGo wire protocol: the JSON control
// message envelope, the compact binary DATA frame, and the QR bootstrap
// payload. It handles encoding, decoding, and field validation only; key
// exchange and encryption live in pkg/crypto, and frame delivery lives in
// pkg/transport.
package protocol
