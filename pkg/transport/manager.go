package transport

import (
	"context"
	"sync"

	"github.com/pion/logging"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/wsadapter"
)

// StateHandler is notified whenever the transport's state changes.
type StateHandler func(state State)

// DataHandler is invoked with each inbound message. Frame-type
// discrimination and decoding happen in the caller (pkg/session).
type DataHandler func(data []byte)

// Config configures a Transport.
type Config struct {
	// ServerAdapter is used by Listen (receiver role). Required to
	// call Listen.
	ServerAdapter wsadapter.WsServerAdapter

	// ClientAdapter is used by Connect (sender role). Required to
	// call Connect.
	ClientAdapter wsadapter.WsClientAdapter

	// LoggerFactory builds the transport's leveled logger. Optional.
	LoggerFactory logging.LoggerFactory
}

// Transport multiplexes a platform WsServerAdapter or WsClientAdapter
// into a single peer connection, enforcing the at-most-one-peer
// invariant, the MaxMessageSize limit, and the idle→listening→
// connected→disconnected→closed lifecycle.
type Transport struct {
	cfg Config
	log logging.LeveledLogger

	mu           sync.Mutex
	state        State
	conn         wsadapter.Conn
	localAddr    string
	gotFirstByte bool

	dataHandler  DataHandler
	stateHandler StateHandler
}

// New creates a Transport in StateIdle.
func New(cfg Config) *Transport {
	t := &Transport{cfg: cfg, state: StateIdle}
	if cfg.LoggerFactory != nil {
		t.log = cfg.LoggerFactory.NewLogger("transport")
	}
	return t
}

// OnData registers the callback fired for each inbound message.
func (t *Transport) OnData(h DataHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dataHandler = h
}

// OnStateChange registers the callback fired whenever the state advances.
func (t *Transport) OnStateChange(h StateHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stateHandler = h
}

// State returns the current lifecycle state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// LocalAddress returns the bound "ip:port", valid once Listen succeeds.
func (t *Transport) LocalAddress() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.localAddr
}

// Listen binds the server adapter on port and returns the bound address
// without blocking; the peer, when one connects, is wired in by
// handleConnection.
func (t *Transport) Listen(port int) (string, error) {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return "", ErrClosed
	}
	if t.cfg.ServerAdapter == nil {
		t.mu.Unlock()
		return "", ErrTransportNotBound
	}
	t.mu.Unlock()

	t.cfg.ServerAdapter.OnConnection(t.handleConnection)

	addr, err := t.cfg.ServerAdapter.Start(port)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.localAddr = addr
	t.setStateLocked(StateListening)
	t.mu.Unlock()

	return addr, nil
}

// Connect dials the client adapter at addr, honoring WSConnectTimeout.
func (t *Transport) Connect(ctx context.Context, addr config.NetworkAddress) error {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.conn != nil {
		t.mu.Unlock()
		return ErrPeerAlreadyConnected
	}
	if t.cfg.ClientAdapter == nil {
		t.mu.Unlock()
		return ErrTransportNotBound
	}
	t.mu.Unlock()

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	conn, err := t.cfg.ClientAdapter.Connect(ctx, DialURL(addr))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrConnectTimedOut
		}
		return err
	}

	t.mu.Lock()
	t.bindConnLocked(conn)
	t.setStateLocked(StateConnected)
	t.mu.Unlock()

	return nil
}

// handleConnection is the server adapter's OnConnection callback. The
// adapter itself must reject a second concurrent peer; this only wires
// the accepted one in.
func (t *Transport) handleConnection(conn wsadapter.Conn) {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.bindConnLocked(conn)
	t.setStateLocked(StateConnected)
	t.mu.Unlock()
}

// bindConnLocked wires message/close handlers onto conn. Caller holds t.mu.
func (t *Transport) bindConnLocked(conn wsadapter.Conn) {
	t.conn = conn
	t.gotFirstByte = false

	conn.OnMessage(func(data []byte) {
		t.mu.Lock()
		if len(data) > config.MaxMessageSize {
			t.mu.Unlock()
			if t.log != nil {
				t.log.Warnf("transport: dropping oversized inbound frame (%d bytes)", len(data))
			}
			return
		}
		t.gotFirstByte = true
		handler := t.dataHandler
		t.mu.Unlock()

		if handler != nil {
			handler(data)
		}
	})

	conn.OnClose(func() {
		t.mu.Lock()
		gotByte := t.gotFirstByte
		wasServer := t.cfg.ServerAdapter != nil
		t.conn = nil

		if !gotByte && wasServer && t.state == StateConnected {
			// A connection that opened and closed without ever sending a
			// byte is treated as a discovery probe, not a real peer.
			t.setStateLocked(StateListening)
			t.mu.Unlock()
			return
		}

		if t.state != StateClosed {
			t.setStateLocked(StateDisconnected)
		}
		t.mu.Unlock()
	})
}

// Send transmits data to the connected peer.
func (t *Transport) Send(data []byte) error {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return ErrClosed
	}
	if len(data) > config.MaxMessageSize {
		t.mu.Unlock()
		return ErrMessageTooLarge
	}
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrTransportNotBound
	}
	return conn.Send(data)
}

// Close tears down any live peer and, for a receiver transport, the
// listening socket. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.state == StateClosed {
		t.mu.Unlock()
		return nil
	}
	conn := t.conn
	t.conn = nil
	server := t.cfg.ServerAdapter
	t.setStateLocked(StateClosed)
	t.mu.Unlock()

	var firstErr error
	if conn != nil {
		if err := conn.Close(); err != nil {
			firstErr = err
		}
	}
	if server != nil {
		if err := server.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// setStateLocked advances the state and fires stateHandler. Caller holds t.mu.
func (t *Transport) setStateLocked(s State) {
	if t.state == s {
		return
	}
	t.state = s
	handler := t.stateHandler
	if handler != nil {
		go handler(s)
	}
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, config.WSConnectTimeout)
}
