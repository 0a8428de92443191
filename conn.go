package bridge

import (
	"time"

	"github.com/gorilla/websocket"
)

// sendFunc queues one outbound frame on the connection it is bound to. It
// fails with ErrConnectionClosed once that connection is gone.
type sendFunc func(message []byte) error

// dial establishes the socket for one connection generation and, on
// success, starts the read loop and the write pump.
func (c *Client) dial(gen uint64) {
	conn, _, err := c.dialer.Dial(c.url, nil)

	c.mu.Lock()
	if gen != c.gen || c.shuttingDown {
		// Disconnect or Reconnect won the race; this dial is stale.
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.logger.Error(err, "failed to establish connection", "endpoint", c.url)
		c.setStatusLocked(StatusDisconnected)
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	conn.SetReadLimit(c.messageSizeLimit)
	c.conn = conn
	c.attempts = 0
	c.setStatusLocked(StatusConnected)
	c.metrics.IncConnections()
	c.metrics.SetConnectionStatus(1)
	c.mu.Unlock()

	c.logger.Info("connection established", "endpoint", c.url)

	writeCh := make(chan []byte, 1)
	done := make(chan struct{})
	send := func(message []byte) error {
		select {
		case writeCh <- message:
			return nil
		case <-done:
			return ErrConnectionClosed
		}
	}

	go c.writePump(conn, writeCh, done)
	go c.readLoop(conn, send, done, gen)
}

// readLoop consumes inbound frames until the connection fails, then settles
// the client state and arms a reconnect unless shutdown was requested.
func (c *Client) readLoop(conn *websocket.Conn, send sendFunc, done chan struct{}, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection lost", "reason", err.Error())
			} else {
				c.logger.Info("connection closed", "reason", err.Error())
			}
			break
		}
		c.handleMessage(data, send)
	}

	close(done)
	conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A deliberate Disconnect already settled status and metrics.
		return
	}
	c.conn = nil
	c.metrics.IncDisconnects()
	c.metrics.SetConnectionStatus(0)
	c.setStatusLocked(StatusDisconnected)
	if !c.shuttingDown {
		c.scheduleReconnectLocked()
	}
}

// writePump serializes all outbound frames; gorilla connections allow only
// one concurrent writer.
func (c *Client) writePump(conn *websocket.Conn, writeCh <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case message := <-writeCh:
			conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error(err, "error writing to connection")
			}
		case <-done:
			return
		}
	}
}

// handleMessage classifies one inbound frame and routes it: heartbeats are
// answered inline on the transport, requests go to the dispatcher on their
// own goroutine, everything else is logged and dropped.
func (c *Client) handleMessage(data []byte, send sendFunc) {
	msg, err := classify(data)
	if err != nil {
		c.logger.Error(err, "dropping malformed message")
		return
	}
	switch m := msg.(type) {
	case heartbeatMessage:
		if err := send(pongMessage); err != nil {
			c.logger.Warn("pong dropped", "reason", err.Error())
		}
	case *requestMessage:
		go c.dispatch(m.req, c.newResponder(m, send))
	default:
		c.logger.Warn("dropping unsupported message", "size", len(data))
	}
}
