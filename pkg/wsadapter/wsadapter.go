// Package wsadapter declares the small capability interfaces that
// pkg/transport and pkg/discovery are generic over. Concrete
// implementations (a real gorilla/websocket-backed adapter for
// production, an in-memory one for tests) live in pkg/wstransport; this
// package only fixes the contracts external collaborators must satisfy.
package wsadapter

import "context"

// ConnHandler is invoked once per accepted peer connection.
type ConnHandler func(conn Conn)

// MessageHandler is invoked for each inbound message on a connection.
type MessageHandler func(data []byte)

// CloseHandler is invoked when a connection's peer disconnects.
type CloseHandler func()

// Conn is a single established WebSocket connection, from either the
// server or the client side.
type Conn interface {
	// Send writes one message frame to the peer.
	Send(data []byte) error

	// OnMessage registers the callback for inbound frames. Only one
	// handler is kept; a later call replaces an earlier one.
	OnMessage(handler MessageHandler)

	// OnClose registers the callback fired when the peer disconnects.
	OnClose(handler CloseHandler)

	// Close closes the connection.
	Close() error
}

// WsServerAdapter listens for at most one peer connection on a port.
// Implementations MUST immediately close any connection beyond the
// first, and MUST enforce a 64 KiB per-frame maximum.
type WsServerAdapter interface {
	// Start binds a listener on port (0 picks an ephemeral port) and
	// returns the bound "ip:port" string.
	Start(port int) (string, error)

	// OnConnection registers the callback fired when a peer connects.
	OnConnection(handler ConnHandler)

	// Stop closes the listener and any accepted connection.
	Stop() error
}

// WsClientAdapter dials a single outbound peer connection.
type WsClientAdapter interface {
	// Connect dials url and blocks until connected, failing the
	// context deadline is exceeded, or the dial otherwise fails.
	Connect(ctx context.Context, url string) (Conn, error)
}

// LocalIpResolver returns the best private IPv4 address for the current
// host, per the interface-name heuristic in the network interfaces
// contract (physical Wi-Fi/Ethernet preferred over VPN/virtual
// adapters). Implemented by a platform-specific external collaborator;
// ShareGo's core only consumes it.
type LocalIpResolver interface {
	LocalIPv4() (string, error)
}

// DiscoveredService describes one peer found during discovery.
type DiscoveredService struct {
	Name      string
	Address   string
	SessionId string
	PublicKey string
}

// DiscoveryAdapter advertises this host's receiver session over mDNS and
// browses for peers advertising one.
type DiscoveryAdapter interface {
	// Advertise publishes a DNS-SD record of serviceType on port with
	// the given TXT key/value pairs.
	Advertise(serviceType string, port int, txt map[string]string) error

	// Browse returns a channel of discovered services; it is closed
	// when the context is canceled or browsing otherwise stops.
	Browse(ctx context.Context, serviceType string) (<-chan DiscoveredService, error)

	// StopAdvertising withdraws the advertised record, if any.
	StopAdvertising() error

	// StopBrowsing cancels any in-flight browse.
	StopBrowsing() error
}
