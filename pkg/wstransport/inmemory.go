package wstransport

import (
	"context"
	"fmt"
	"sync"

	"github.com/sharego/core/pkg/transport"
	"github.com/sharego/core/pkg/wsadapter"
)

// registry maps a bound in-memory "port" to its listener, standing in
// for the OS's socket namespace. Only meaningful within one process;
// used exclusively by tests.
var (
	registryMu sync.Mutex
	registry   = map[int]*inMemoryListener{}
	nextPort   = 49152
)

type inMemoryListener struct {
	mu      sync.Mutex
	handler wsadapter.ConnHandler
	busy    bool
}

// offer delivers conn to the listener's registered handler if no peer is
// currently connected. A second concurrent offer is rejected by closing
// conn immediately, mirroring the at-most-one-peer server contract.
func (l *inMemoryListener) offer(conn wsadapter.Conn) {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		conn.Close()
		return
	}
	l.busy = true
	handler := l.handler
	l.mu.Unlock()

	if handler == nil {
		conn.Close()
		return
	}
	handler(conn)
}

func (l *inMemoryListener) release() {
	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
}

// InMemoryServerAdapter is a wsadapter.WsServerAdapter backed by the
// package-level in-memory registry instead of a real socket.
type InMemoryServerAdapter struct {
	mu      sync.Mutex
	port    int
	lst     *inMemoryListener
	handler wsadapter.ConnHandler
}

// NewInMemoryServerAdapter creates an unbound in-memory server adapter.
func NewInMemoryServerAdapter() *InMemoryServerAdapter {
	return &InMemoryServerAdapter{}
}

// Start implements wsadapter.WsServerAdapter. Port 0 picks the next
// available in-memory port.
func (s *InMemoryServerAdapter) Start(port int) (string, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if port == 0 {
		port = nextPort
		nextPort++
	}
	if _, exists := registry[port]; exists {
		return "", fmt.Errorf("wstransport: port %d already bound", port)
	}

	s.mu.Lock()
	l := &inMemoryListener{handler: s.handler}
	registry[port] = l
	s.port = port
	s.lst = l
	s.mu.Unlock()

	return fmt.Sprintf("127.0.0.1:%d", port), nil
}

// OnConnection implements wsadapter.WsServerAdapter.
func (s *InMemoryServerAdapter) OnConnection(h wsadapter.ConnHandler) {
	s.mu.Lock()
	s.handler = h
	l := s.lst
	s.mu.Unlock()
	if l == nil {
		return
	}
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

// Stop implements wsadapter.WsServerAdapter.
func (s *InMemoryServerAdapter) Stop() error {
	s.mu.Lock()
	port, lst := s.port, s.lst
	s.lst = nil
	s.mu.Unlock()

	if lst == nil {
		return nil
	}
	registryMu.Lock()
	if registry[port] == lst {
		delete(registry, port)
	}
	registryMu.Unlock()
	return nil
}

// InMemoryClientAdapter is a wsadapter.WsClientAdapter that dials into
// the in-memory registry instead of opening a real socket.
type InMemoryClientAdapter struct{}

// NewInMemoryClientAdapter creates an in-memory client adapter.
func NewInMemoryClientAdapter() *InMemoryClientAdapter {
	return &InMemoryClientAdapter{}
}

// Connect implements wsadapter.WsClientAdapter. url is expected in the
// "ws://127.0.0.1:PORT" form produced by InMemoryServerAdapter.Start.
func (c *InMemoryClientAdapter) Connect(ctx context.Context, url string) (wsadapter.Conn, error) {
	var port int
	if _, err := fmt.Sscanf(url, "ws://127.0.0.1:%d", &port); err != nil {
		return nil, fmt.Errorf("wstransport: invalid in-memory url %q", url)
	}

	registryMu.Lock()
	lst, ok := registry[port]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wstransport: connection refused on port %d", port)
	}

	pipe := transport.NewPipe()

	serverConn := newLengthPrefixedConn(pipe.Conn0(), lst.release)
	clientConn := newLengthPrefixedConn(pipe.Conn1(), nil)

	select {
	case <-ctx.Done():
		pipe.Close()
		return nil, ctx.Err()
	default:
	}

	lst.offer(serverConn)

	return clientConn, nil
}

var (
	_ wsadapter.WsServerAdapter = (*InMemoryServerAdapter)(nil)
	_ wsadapter.WsClientAdapter = (*InMemoryClientAdapter)(nil)
)
