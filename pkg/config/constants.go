package config

import "time"

// Protocol version advertised in every control message and QR payload.
const ProtocolVersion = 1

// DefaultPort is the default WebSocket listen port for a receiver.
const DefaultPort = 4040

// SessionCodeLength is the number of characters in a human-typeable
// session code (and in the SessionId it is derived from).
const SessionCodeLength = 6

// SessionCodeAlphabet excludes visually ambiguous characters (0/O, 1/I).
const SessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// BootstrapTTL is how long a QR code / session code remains valid
// before the caller should regenerate it. This is the authoritative
// value; pkg/session never defaults this on its own (see SPEC_FULL.md §C).
const BootstrapTTL = 10 * time.Second

// SessionTTL is the maximum lifetime of a session after which it is
// force-closed regardless of activity.
const SessionTTL = 300 * time.Second

// RegenerationDelay is the UI-facing delay before a new bootstrap QR is
// generated after the previous one expires.
const RegenerationDelay = 300 * time.Millisecond

// CopyFeedbackDuration is how long a "copied" UI affordance should be
// shown after the session code is copied to the clipboard.
const CopyFeedbackDuration = 2 * time.Second

// WSConnectTimeout bounds how long a sender's WsClientAdapter.Connect may
// take before failing with ErrConnectTimedOut.
const WSConnectTimeout = 10 * time.Second

// DiscoveryHostTimeout bounds a single host probe during the /24 subnet
// scan fallback.
const DiscoveryHostTimeout = 1500 * time.Millisecond

// MDNSBrowseTimeout is the default duration an mDNS browse runs before
// giving up, absent caller-supplied deadline.
const MDNSBrowseTimeout = 5 * time.Second

// SubnetScanConcurrency bounds the number of in-flight host probes during
// the /24 subnet scan fallback.
const SubnetScanConcurrency = 20

// MaxMessageSize is the largest frame (JSON control or binary DATA) the
// transport will send or accept, in bytes.
const MaxMessageSize = 65536

// MaxSeqGap is the largest forward jump in an inbound sequence number
// that is tolerated before the session is closed with a sequence-gap
// error. Not pinned by spec.md; chosen per its §9 guidance.
const MaxSeqGap = 1024

// RebindRetries/RebindDelay govern the WsServerAdapter's SO_REUSEADDR-style
// rebind behavior after a quick restart.
const (
	RebindRetries = 5
	RebindDelay   = 200 * time.Millisecond
)

// ServiceType is the mDNS DNS-SD service type ShareGo advertises and
// browses for peer discovery.
const ServiceType = "_sharego._tcp"
