package transport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"main/pkg/exception"
)

// client is one downstream websocket connection. Send never blocks: the
// payload either fits the outbound queue or the send is refused and the
// relay skips this subscriber for the current publish.
type client struct {
	conn        *websocket.Conn
	send        chan []byte
	backlog     atomic.Int64
	idleTimeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, queueSize int, idleTimeout time.Duration) *client {
	return &client{
		conn:        conn,
		send:        make(chan []byte, queueSize),
		idleTimeout: idleTimeout,
		closed:      make(chan struct{}),
	}
}

// Send enqueues a payload for the write pump.
func (c *client) Send(payload []byte) error {
	select {
	case <-c.closed:
		return exception.ErrSubscriberClosed
	default:
	}
	select {
	case c.send <- payload:
		c.backlog.Add(int64(len(payload)))
		return nil
	default:
		return exception.ErrSubscriberBacklog
	}
}

// OutboundBacklogBytes reports the bytes queued but not yet written.
func (c *client) OutboundBacklogBytes() int64 {
	return c.backlog.Load()
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// writePump drains the outbound queue and keeps the connection alive
// with pings at a fraction of the idle timeout.
func (c *client) writePump() {
	pingInterval := c.idleTimeout / 2
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			c.backlog.Add(-int64(len(payload)))
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.idleTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.idleTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readPump discards inbound frames; subscribers are listen-only. It
// returns when the peer goes away or stops answering pings.
func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
