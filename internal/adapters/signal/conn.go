// Package signal is the websocket edge of the core: it upgrades
// connections, authenticates them, decodes inbound commands, and implements
// event delivery for the state managers.
package signal

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tgrenier/huddle/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn wraps one websocket with a buffered outbound channel. TrySend never
// blocks: a full buffer drops the frame and reports backpressure.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(ws *websocket.Conn, sendBuf int) *wsConn {
	if sendBuf <= 0 {
		sendBuf = 32
	}
	return &wsConn{conn: ws, send: make(chan core.Frame, sendBuf)}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
