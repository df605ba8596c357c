package discovery

import "errors"

// Discovery package errors.
var (
	// ErrClosed is returned by an operation on an adapter that has
	// already been closed/stopped.
	ErrClosed = errors.New("discovery: adapter closed")

	// ErrAlreadyAdvertising is returned by Advertise when a service is
	// already being advertised; call StopAdvertising first.
	ErrAlreadyAdvertising = errors.New("discovery: already advertising")

	// ErrNotAdvertising is returned by StopAdvertising when nothing is
	// currently advertised.
	ErrNotAdvertising = errors.New("discovery: not advertising")

	// ErrLocalIPUnavailable is returned by ScanSubnet when the local
	// address it is given is not a well-formed IPv4, so no /24 can be
	// derived to probe. DiscoverReceiver does not surface it: a failing or
	// empty LocalIpResolver, or a failed scan, yields a nil result.
	ErrLocalIPUnavailable = errors.New("discovery: local ipv4 unavailable")
)
