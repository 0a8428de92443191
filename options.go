package bridge

import (
	"time"

	"github.com/gorilla/websocket"
)

// --- Interfaces ---

// Logger is an interface that allows for plugging in custom structured loggers.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(err error, msg string, keysAndValues ...interface{})
}

// Metrics is an interface that allows for plugging in custom metrics collectors.
type Metrics interface {
	IncConnections()
	IncDisconnects()
	IncReconnects()
	IncRequests(outcome string)
	SetConnectionStatus(status float64)
}

// Request outcome labels passed to Metrics.IncRequests.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeDropped = "dropped"
)

// --- No-op Implementations ---

type nopLogger struct{}

func (l *nopLogger) Info(msg string, keysAndValues ...interface{})             {}
func (l *nopLogger) Warn(msg string, keysAndValues ...interface{})             {}
func (l *nopLogger) Error(err error, msg string, keysAndValues ...interface{}) {}

type nopMetrics struct{}

func (m *nopMetrics) IncConnections()                    {}
func (m *nopMetrics) IncDisconnects()                    {}
func (m *nopMetrics) IncReconnects()                     {}
func (m *nopMetrics) IncRequests(outcome string)         {}
func (m *nopMetrics) SetConnectionStatus(status float64) {}

// --- Configuration ---

// RetryPolicy defines the backoff strategy for reconnections. Delays grow
// exponentially from InitialBackoff, capped at MaxBackoff, with up to 30%
// random jitter added on top.
type RetryPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// MaxAttempts bounds the number of automatic reconnects per outage.
	// Zero means retry forever, which is the default: a background agent
	// must eventually recover from a restart of its counterpart.
	MaxAttempts int
}

func (p RetryPolicy) normalized() RetryPolicy {
	q := p
	if q.InitialBackoff <= 0 {
		q.InitialBackoff = 1 * time.Second
	}
	if q.MaxBackoff <= 0 {
		q.MaxBackoff = 30 * time.Second
	}
	if q.MaxBackoff < q.InitialBackoff {
		q.MaxBackoff = q.InitialBackoff
	}
	if q.MaxAttempts < 0 {
		q.MaxAttempts = 0
	}
	return q
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger for the Client.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets a custom metrics collector for the Client.
func WithMetrics(metrics Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithRetryPolicy sets the reconnection policy for the Client.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithDialer sets a custom websocket.Dialer for the Client.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithStatusListener registers a callback invoked exactly once per status
// transition. The callback runs synchronously on the client's internal
// lock and must not call back into the Client.
func WithStatusListener(fn func(Status)) Option {
	return func(c *Client) {
		c.statusListener = fn
	}
}

// WithMessageSizeLimit caps the size of inbound frames. Oversized messages
// kill the connection, which then recovers through the normal reconnect path.
func WithMessageSizeLimit(limit int64) Option {
	return func(c *Client) {
		c.messageSizeLimit = limit
	}
}

// WithWriteTimeout sets the write deadline applied to every outbound frame.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.writeTimeout = d
	}
}
