// Package discovery finds a ShareGo receiver on the local network: mDNS
// advertise/browse of the "_sharego._tcp" service when an adapter is
// available, falling back to a bounded-concurrency /24 subnet WebSocket
// probe otherwise. See spec.md §4.6.
package discovery
