package wstransport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/wsadapter"
)

// lengthPrefixedConn turns a byte-stream net.Conn into a message-framed
// wsadapter.Conn, the way a real WebSocket connection already is:
// writes get a 4-byte big-endian length prefix, and a background reader
// goroutine splits the stream back into discrete messages.
//
// Used by the in-memory adapter pair, which sits directly on top of
// pkg/transport.Pipe's raw net.Conn endpoints.
type lengthPrefixedConn struct {
	conn net.Conn

	mu          sync.Mutex
	onMessage   wsadapter.MessageHandler
	onClose     wsadapter.CloseHandler
	afterClose  func()
	closeOnce   sync.Once
}

func newLengthPrefixedConn(conn net.Conn, afterClose func()) *lengthPrefixedConn {
	c := &lengthPrefixedConn{conn: conn, afterClose: afterClose}
	go c.readLoop()
	return c
}

func (c *lengthPrefixedConn) readLoop() {
	defer c.fireClose()

	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(c.conn, lenBuf[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		if n == 0 || n > config.MaxMessageSize {
			return
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(c.conn, data); err != nil {
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

func (c *lengthPrefixedConn) fireClose() {
	c.mu.Lock()
	handler := c.onClose
	after := c.afterClose
	c.mu.Unlock()

	if handler != nil {
		handler()
	}
	if after != nil {
		after()
	}
}

// Send implements wsadapter.Conn.
func (c *lengthPrefixedConn) Send(data []byte) error {
	if len(data) > config.MaxMessageSize {
		return fmt.Errorf("wstransport: message exceeds maximum size")
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := c.conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := c.conn.Write(data)
	return err
}

// OnMessage implements wsadapter.Conn.
func (c *lengthPrefixedConn) OnMessage(h wsadapter.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = h
}

// OnClose implements wsadapter.Conn.
func (c *lengthPrefixedConn) OnClose(h wsadapter.CloseHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = h
}

// Close implements wsadapter.Conn.
func (c *lengthPrefixedConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

var _ wsadapter.Conn = (*lengthPrefixedConn)(nil)
