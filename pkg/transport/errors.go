package transport

import "errors"

// Transport errors.
var (
	// ErrInvalidAddress is returned when a peer address fails validation.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrConnectTimedOut is returned when a client connect exceeds WSConnectTimeout.
	ErrConnectTimedOut = errors.New("transport: connect timed out")

	// ErrTransportNotBound is returned when Send is called before a peer connects.
	ErrTransportNotBound = errors.New("transport: not bound")

	// ErrPeerAlreadyConnected is returned by Connect on a transport that
	// already owns a live peer.
	ErrPeerAlreadyConnected = errors.New("transport: peer already connected")

	// ErrMessageTooLarge is returned when an outbound message exceeds MaxMessageSize.
	ErrMessageTooLarge = errors.New("transport: message exceeds maximum size")

	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")
)
