// Package config holds the named constants and branded identifier types
// shared across the ShareGo core packages: TTLs, sizes, ports, and
// phantom-typed wrappers for session ids, addresses, and base64-encoded
// key material.
package config
