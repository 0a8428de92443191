// Package bridge maintains one logical WebSocket connection between an
// automation host and a remote application. It reconnects automatically
// with capped exponential backoff and jitter, normalizes inbound calls from
// two wire formats into one canonical request shape, dispatches them to a
// locally registered handler, and sends back correlated replies.
package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"scribelink.io/bridge/internal/backoff"
)

// Client is the bridge client. Construct it with New, register a handler
// with SetHandler, then call Connect. The zero value is not usable.
type Client struct {
	url              string
	logger           Logger
	metrics          Metrics
	retry            RetryPolicy
	dialer           *websocket.Dialer
	statusListener   func(Status)
	messageSizeLimit int64
	writeTimeout     time.Duration

	mu           sync.Mutex
	conn         *websocket.Conn
	status       Status
	attempts     int
	retryTimer   *time.Timer
	shuttingDown bool
	handler      Handler

	// gen counts connection generations. Dial results and read-loop exits
	// compare it against the value they captured, so events from a socket
	// that Disconnect or Reconnect already tore down are discarded.
	gen uint64
}

// New creates a Client for the given ws:// or wss:// endpoint.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		logger:  &nopLogger{},
		metrics: &nopMetrics{},
		retry: RetryPolicy{
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		dialer:           websocket.DefaultDialer,
		messageSizeLimit: 1 << 20,
		writeTimeout:     10 * time.Second,
		status:           StatusDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry = c.retry.normalized()
	return c
}

// Connect opens the connection. It returns immediately; the dial happens in
// the background and failures feed the reconnect schedule instead of being
// returned. Calling Connect while a connection is open or being opened is a
// no-op.
func (c *Client) Connect() {
	c.connect(false)
}

// connect starts a dial cycle. fromRetry marks calls made by the reconnect
// timer: a timer that already fired when Disconnect ran must not resurrect
// the connection, whereas an explicit Connect always may.
func (c *Client) connect(fromRetry bool) {
	c.mu.Lock()
	if fromRetry && c.shuttingDown {
		c.mu.Unlock()
		return
	}
	if c.conn != nil || c.status == StatusConnecting {
		c.mu.Unlock()
		return
	}
	c.shuttingDown = false
	c.stopRetryTimerLocked()
	c.gen++
	gen := c.gen
	c.setStatusLocked(StatusConnecting)
	c.mu.Unlock()

	go c.dial(gen)
}

// Disconnect closes the connection with a normal-closure code and suppresses
// any further automatic reconnects. Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuttingDown = true
	c.gen++
	c.stopRetryTimerLocked()

	if c.conn != nil {
		deadline := time.Now().Add(c.writeTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			c.logger.Warn("close handshake failed", "reason", err.Error())
		}
		c.conn.Close()
		c.conn = nil
		c.metrics.IncDisconnects()
		c.metrics.SetConnectionStatus(0)
		c.logger.Info("disconnected", "endpoint", c.url)
	}
	c.setStatusLocked(StatusDisconnected)
}

// Reconnect forces a fresh connection cycle: it resets the attempt counter,
// tears down any current connection and dials again. Use it to resume after
// the retry budget was exhausted.
func (c *Client) Reconnect() {
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()

	c.Disconnect()
	c.Connect()
}

// SetHandler registers the request handler, replacing any previous one.
// In-flight invocations of the old handler finish undisturbed; only
// messages processed after the call see the new handler.
func (c *Client) SetHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) currentHandler() Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

func (c *Client) setStatusLocked(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	if c.statusListener != nil {
		c.statusListener(s)
	}
}

func (c *Client) stopRetryTimerLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

func (c *Client) scheduleReconnectLocked() {
	if c.shuttingDown {
		return
	}
	if c.retry.MaxAttempts > 0 && c.attempts >= c.retry.MaxAttempts {
		c.logger.Error(ErrRetriesExhausted, "not reconnecting", "attempts", c.attempts)
		return
	}

	policy := backoff.Policy{Initial: c.retry.InitialBackoff, Max: c.retry.MaxBackoff}
	delay := policy.Delay(c.attempts)
	c.attempts++
	c.metrics.IncReconnects()
	c.logger.Info("reconnect scheduled", "attempt", c.attempts, "delay", delay.String())
	c.retryTimer = time.AfterFunc(delay, func() { c.connect(true) })
}
