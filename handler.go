package bridge

import (
	"context"
	"encoding/json"
)

// Request is the canonical form of one inbound call, independent of the
// wire format it arrived in.
type Request struct {
	// ID is the correlation id exactly as it appeared on the wire, kept
	// raw so that string, number and null ids round-trip unchanged. It is
	// nil when the custom format omitted the id key entirely; JSON-RPC
	// requests without an id carry the literal token "null" instead, per
	// that protocol's convention.
	ID json.RawMessage

	// Action is the operation name. Never empty.
	Action string

	// Payload holds the request arguments. Never nil; an absent or
	// non-object payload becomes an empty map.
	Payload map[string]any
}

// Handler processes one canonical request and returns a result value to be
// serialized back to the caller, or an error whose message is forwarded as
// the failure reply. Handlers may run for a long time; the client does not
// cancel them when the connection drops, it only discards their reply.
type Handler func(ctx context.Context, req Request) (any, error)
