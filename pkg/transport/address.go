package transport

import (
	"fmt"
	"strings"

	"github.com/sharego/core/pkg/config"
)

// ValidateAddress checks raw against the strict "ipv4:port" /
// "ws://ipv4:port" grammar, returning ErrInvalidAddress if it fails.
func ValidateAddress(raw string) (config.NetworkAddress, error) {
	addr, err := config.ParseNetworkAddress(raw)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return addr, nil
}

// DialURL turns a validated NetworkAddress into the ws:// URL a
// WsClientAdapter dials.
func DialURL(addr config.NetworkAddress) string {
	s := string(addr)
	if strings.HasPrefix(s, "ws://") {
		return s
	}
	return fmt.Sprintf("ws://%s", s)
}

// BareAddr strips any "ws://" scheme prefix, returning a plain "ip:port".
func BareAddr(addr config.NetworkAddress) string {
	return strings.TrimPrefix(string(addr), "ws://")
}
