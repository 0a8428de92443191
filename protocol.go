package bridge

import (
	"encoding/json"
	"fmt"
)

// The client understands exactly three inbound shapes: a heartbeat probe,
// the custom request format ({"id"?, "action", "payload"?}) and JSON-RPC
// 2.0 ({"jsonrpc":"2.0", "id"?, "method", "params"?}). Everything else is
// dropped without a reply.

type wireFormat int

const (
	wireCustom wireFormat = iota
	wireJSONRPC
)

// jsonRPCErrorCode is the single code used for every handler failure.
// The protocol's counterpart makes no finer distinction, so neither do we.
const jsonRPCErrorCode = -32000

var pongMessage = []byte(`{"type":"pong"}`)

// inboundMessage is the result of classifying one wire message.
type inboundMessage interface {
	isInbound()
}

// heartbeatMessage is {"type":"ping"}. Answered directly on the transport,
// never dispatched.
type heartbeatMessage struct{}

func (heartbeatMessage) isInbound() {}

// requestMessage is a normalized RPC call in either wire format. hasID
// records whether the id key was present in the input; presence of the
// key, not truthiness of its value, decides whether a reply is expected.
type requestMessage struct {
	req    Request
	format wireFormat
	hasID  bool
}

func (*requestMessage) isInbound() {}

// classify parses one raw message into its typed shape. It returns
// (nil, nil) for well-formed JSON that matches none of the supported
// shapes, and an error only when the body is not valid JSON at all.
func classify(data []byte) (inboundMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		if !json.Valid(data) {
			return nil, fmt.Errorf("parse message: %w", err)
		}
		// Valid JSON but not an object (array, scalar): unsupported.
		return nil, nil
	}

	if typ, ok := stringField(fields, "type"); ok && typ == "ping" {
		return heartbeatMessage{}, nil
	}

	if action, ok := stringField(fields, "action"); ok && action != "" {
		id, hasID := fields["id"]
		return &requestMessage{
			req: Request{
				ID:      id,
				Action:  action,
				Payload: objectField(fields, "payload"),
			},
			format: wireCustom,
			hasID:  hasID,
		}, nil
	}

	if version, ok := stringField(fields, "jsonrpc"); ok && version == "2.0" {
		if method, ok := stringField(fields, "method"); ok && method != "" {
			id, hasID := fields["id"]
			if id == nil {
				// JSON-RPC convention: an absent id is reported as null.
				id = json.RawMessage("null")
			}
			return &requestMessage{
				req: Request{
					ID:      id,
					Action:  method,
					Payload: objectField(fields, "params"),
				},
				format: wireJSONRPC,
				hasID:  hasID,
			}, nil
		}
	}

	return nil, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func objectField(fields map[string]json.RawMessage, key string) map[string]any {
	raw, ok := fields[key]
	if !ok {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// --- Response serialization ---

type customResult struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result"`
}

type customFailure struct {
	ID    json.RawMessage `json:"id"`
	Error string          `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResult struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

type rpcFailure struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   rpcError        `json:"error"`
}

// encodeResponse serializes a handler outcome into the wire format the
// request arrived in, echoing the original correlation id.
func encodeResponse(format wireFormat, id json.RawMessage, result any, handlerErr error) ([]byte, error) {
	switch format {
	case wireJSONRPC:
		if handlerErr != nil {
			return json.Marshal(rpcFailure{
				JSONRPC: "2.0",
				ID:      id,
				Error:   rpcError{Code: jsonRPCErrorCode, Message: handlerErr.Error()},
			})
		}
		return json.Marshal(rpcResult{JSONRPC: "2.0", ID: id, Result: result})
	default:
		if handlerErr != nil {
			return json.Marshal(customFailure{ID: id, Error: handlerErr.Error()})
		}
		return json.Marshal(customResult{ID: id, Result: result})
	}
}

// respondFunc delivers one handler outcome back to the remote caller. A nil
// respondFunc marks a fire-and-forget request: no reply is ever sent.
type respondFunc func(result any, handlerErr error)

// newResponder binds a one-shot reply path to an inbound request, or
// returns nil when the request did not carry an id key.
func (c *Client) newResponder(m *requestMessage, send sendFunc) respondFunc {
	if !m.hasID {
		return nil
	}
	return func(result any, handlerErr error) {
		data, err := encodeResponse(m.format, m.req.ID, result, handlerErr)
		if err != nil {
			c.logger.Error(err, "failed to encode response", "action", m.req.Action)
			return
		}
		if err := send(data); err != nil {
			// Connection went away while the handler ran; the reply is lost.
			c.logger.Warn("response dropped", "action", m.req.Action, "reason", err.Error())
		}
	}
}
