package wstransport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/wsadapter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// gorillaConn wraps a *websocket.Conn as a wsadapter.Conn. Each message
// is sent/received as a single binary WebSocket frame.
type gorillaConn struct {
	ws *websocket.Conn

	mu         sync.Mutex
	onMessage  wsadapter.MessageHandler
	onClose    wsadapter.CloseHandler
	afterClose func()
	closeOnce  sync.Once
	readOnce   sync.Once
}

func newGorillaConn(ws *websocket.Conn) *gorillaConn {
	ws.SetReadLimit(config.MaxMessageSize)
	return &gorillaConn{ws: ws}
}

// startReading begins the read pump once both handlers have had a
// chance to be registered by the caller.
func (c *gorillaConn) startReading() {
	c.readOnce.Do(func() {
		go c.readLoop()
	})
}

func (c *gorillaConn) readLoop() {
	defer func() {
		c.mu.Lock()
		h := c.onClose
		after := c.afterClose
		c.mu.Unlock()
		if h != nil {
			h()
		}
		if after != nil {
			after()
		}
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		c.mu.Lock()
		handler := c.onMessage
		c.mu.Unlock()
		if handler != nil {
			handler(data)
		}
	}
}

// Send implements wsadapter.Conn.
func (c *gorillaConn) Send(data []byte) error {
	if len(data) > config.MaxMessageSize {
		return fmt.Errorf("wstransport: message exceeds maximum size")
	}
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}

// OnMessage implements wsadapter.Conn.
func (c *gorillaConn) OnMessage(h wsadapter.MessageHandler) {
	c.mu.Lock()
	c.onMessage = h
	c.mu.Unlock()
}

// OnClose implements wsadapter.Conn.
func (c *gorillaConn) OnClose(h wsadapter.CloseHandler) {
	c.mu.Lock()
	c.onClose = h
	c.mu.Unlock()
}

// Close implements wsadapter.Conn.
func (c *gorillaConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

var _ wsadapter.Conn = (*gorillaConn)(nil)

// GorillaServerAdapter is a wsadapter.WsServerAdapter backed by a real
// net/http server and gorilla/websocket, enforcing ShareGo's
// at-most-one-peer rule by closing any connection beyond the first.
type GorillaServerAdapter struct {
	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
	handler  wsadapter.ConnHandler
	peer     wsadapter.Conn
}

// NewGorillaServerAdapter creates an unbound server adapter.
func NewGorillaServerAdapter() *GorillaServerAdapter {
	return &GorillaServerAdapter{}
}

// Start binds a TCP listener on port, retrying up to RebindRetries times
// (RebindDelay apart) to ride out a lingering socket from a quick
// restart, then serves WebSocket upgrades on it.
func (s *GorillaServerAdapter) Start(port int) (string, error) {
	addr := fmt.Sprintf("0.0.0.0:%d", port)

	var ln net.Listener
	var err error
	for attempt := 0; attempt <= config.RebindRetries; attempt++ {
		ln, err = net.Listen("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(config.RebindDelay)
	}
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	srv := &http.Server{Handler: mux}

	s.mu.Lock()
	s.listener = ln
	s.srv = srv
	s.mu.Unlock()

	go srv.Serve(ln)

	return ln.Addr().String(), nil
}

func (s *GorillaServerAdapter) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := newGorillaConn(ws)

	s.mu.Lock()
	if s.peer != nil {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.peer = conn
	handler := s.handler
	s.mu.Unlock()

	// Freed through afterClose rather than OnClose, which keeps a single
	// handler that the transport replaces with its own.
	conn.afterClose = func() {
		s.mu.Lock()
		if s.peer == conn {
			s.peer = nil
		}
		s.mu.Unlock()
	}

	if handler != nil {
		handler(conn)
	}
	conn.startReading()
}

// OnConnection implements wsadapter.WsServerAdapter.
func (s *GorillaServerAdapter) OnConnection(h wsadapter.ConnHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Stop implements wsadapter.WsServerAdapter.
func (s *GorillaServerAdapter) Stop() error {
	s.mu.Lock()
	srv, peer := s.srv, s.peer
	s.peer = nil
	s.mu.Unlock()

	if peer != nil {
		peer.Close()
	}
	if srv == nil {
		return nil
	}
	return srv.Close()
}

// GorillaClientAdapter dials a real WebSocket peer.
type GorillaClientAdapter struct{}

// NewGorillaClientAdapter creates a client adapter.
func NewGorillaClientAdapter() *GorillaClientAdapter {
	return &GorillaClientAdapter{}
}

// Connect implements wsadapter.WsClientAdapter.
func (c *GorillaClientAdapter) Connect(ctx context.Context, url string) (wsadapter.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: config.WSConnectTimeout}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn := newGorillaConn(ws)
	conn.startReading()
	return conn, nil
}

var (
	_ wsadapter.WsServerAdapter = (*GorillaServerAdapter)(nil)
	_ wsadapter.WsClientAdapter = (*GorillaClientAdapter)(nil)
)
