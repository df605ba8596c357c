package session

import "errors"

// Session errors.
var (
	// ErrInvalidTransition is raised when an operation would move the
	// state machine along a pair not present in the transition table.
	ErrInvalidTransition = errors.New("session: invalid state transition")

	// ErrSessionExpired is raised/emitted when sessionTtl has elapsed.
	ErrSessionExpired = errors.New("session: expired")

	// ErrBootstrapExpired is raised when a HELLO arrives after bootstrapTtl.
	ErrBootstrapExpired = errors.New("session: bootstrap expired")

	// ErrSequenceOverflow is raised when the outbound seq would wrap past 2^32-1.
	ErrSequenceOverflow = errors.New("session: outbound sequence number overflow")

	// ErrSequenceGapTooLarge is emitted when an inbound seq jumps more
	// than config.MaxSeqGap ahead of highestSeenSeq.
	ErrSequenceGapTooLarge = errors.New("session: sequence number gap too large")

	// ErrNotActive is raised when SendData is called outside StateActive.
	ErrNotActive = errors.New("session: not active")

	// ErrNoTransport is raised when an operation needs a transport that
	// was never bound.
	ErrNoTransport = errors.New("session: no transport bound")

	// ErrTransportDisconnected is emitted when the transport reports
	// disconnection while the session was not already closing.
	ErrTransportDisconnected = errors.New("session: transport disconnected")

	// ErrAuthenticationFailed is emitted on the receiver when AUTH's
	// proof does not match the stored challenge.
	ErrAuthenticationFailed = errors.New("session: authentication failed")

	// ErrSuperseded is returned internally when an awaited listen/connect
	// completes after a newer session or a close already took over.
	ErrSuperseded = errors.New("session: superseded")
)
