// Package session implements the ShareGo pairing session: a role-aware
// handshake state machine (receiver or sender), replay-protected frame
// ordering, encrypted data transfer, and key zeroization on teardown.
//
// A Session owns exactly one keypair, one derived encryption key, one
// transport, and one listener set. It advances through a validated
// state table (see transitions.go); every inbound frame is dispatched
// through handleInbound, which applies the expiry and replay checks
// before any state-specific logic runs.
package session
