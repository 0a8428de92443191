package bridge

import "errors"

// ErrConnectionClosed is returned by the per-connection send function once
// the underlying socket is gone. Responses hitting it are dropped
// best-effort; the remote caller sees a lost reply, not an error.
var ErrConnectionClosed = errors.New("bridge: connection closed")

// ErrRetriesExhausted is logged when the configured maximum number of
// reconnect attempts has been reached. The client stays disconnected until
// an explicit Reconnect call resets the attempt counter.
var ErrRetriesExhausted = errors.New("bridge: reconnect attempts exhausted")
