package wstransport

import "errors"

// ErrNoLocalAddress is returned when no private (RFC1918) IPv4 address
// could be found on an up interface that the name heuristic does not skip.
var ErrNoLocalAddress = errors.New("wstransport: no local IPv4 address found")
