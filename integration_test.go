package bridge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribelink.io/bridge"
)

var upgrader = websocket.Upgrader{}

// wireServer is a scripted remote endpoint: it accepts one connection and
// exposes channels to push frames to the client and collect its replies.
type wireServer struct {
	server  *httptest.Server
	outbox  chan []byte // frames for the client
	inbox   chan []byte // frames from the client
	started chan struct{}
}

func newWireServer(t *testing.T) *wireServer {
	t.Helper()
	ws := &wireServer{
		outbox:  make(chan []byte, 16),
		inbox:   make(chan []byte, 16),
		started: make(chan struct{}),
	}
	ws.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		close(ws.started)

		go func() {
			for frame := range ws.outbox {
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ws.inbox <- data
		}
	}))
	t.Cleanup(ws.server.Close)
	return ws
}

func (ws *wireServer) url() string {
	return "ws" + strings.TrimPrefix(ws.server.URL, "http")
}

func (ws *wireServer) send(t *testing.T, frame string) {
	t.Helper()
	ws.outbox <- []byte(frame)
}

func (ws *wireServer) expectReply(t *testing.T) string {
	t.Helper()
	select {
	case data := <-ws.inbox:
		return string(data)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a reply")
		return ""
	}
}

func (ws *wireServer) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case data := <-ws.inbox:
		t.Fatalf("expected no reply, got %s", data)
	case <-time.After(d):
	}
}

func connect(t *testing.T, ws *wireServer, handler bridge.Handler) *bridge.Client {
	t.Helper()
	client := bridge.New(ws.url())
	if handler != nil {
		client.SetHandler(handler)
	}
	client.Connect()
	t.Cleanup(client.Disconnect)

	select {
	case <-ws.started:
	case <-time.After(3 * time.Second):
		t.Fatal("client never connected")
	}
	return client
}

func TestRoundTrip_CustomRequest(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, func(ctx context.Context, req bridge.Request) (any, error) {
		assert.Equal(t, "noop", req.Action)
		return map[string]any{"ok": true}, nil
	})

	ws.send(t, `{"id":"7","action":"noop","payload":{}}`)
	assert.JSONEq(t, `{"id":"7","result":{"ok":true}}`, ws.expectReply(t))
}

func TestRoundTrip_JSONRPCHandlerError(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, func(ctx context.Context, req bridge.Request) (any, error) {
		return nil, errors.New("boom")
	})

	ws.send(t, `{"jsonrpc":"2.0","id":1,"method":"noop"}`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`, ws.expectReply(t))
}

func TestRoundTrip_NullIDStillGetsReply(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, func(ctx context.Context, req bridge.Request) (any, error) {
		return "done", nil
	})

	ws.send(t, `{"id":null,"action":"noop"}`)
	assert.JSONEq(t, `{"id":null,"result":"done"}`, ws.expectReply(t))
}

func TestRoundTrip_FireAndForgetNeverReplies(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, func(ctx context.Context, req bridge.Request) (any, error) {
		return "would be a reply", nil
	})

	// The first request omits the id key; only the second may be answered.
	ws.send(t, `{"action":"fire_and_forget"}`)
	ws.send(t, `{"id":"2","action":"noop"}`)

	assert.JSONEq(t, `{"id":"2","result":"would be a reply"}`, ws.expectReply(t))
	ws.expectSilence(t, 150*time.Millisecond)
}

func TestRoundTrip_HeartbeatWithoutHandler(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, nil) // heartbeats must work with no handler registered

	ws.send(t, `{"type":"ping"}`)
	assert.JSONEq(t, `{"type":"pong"}`, ws.expectReply(t))
}

func TestRoundTrip_NoHandlerDropsButHeartbeatStillWorks(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, nil)

	ws.send(t, `{"id":"7","action":"noop"}`)
	ws.send(t, `{"type":"ping"}`)

	// The pong arrives; the request never gets an answer.
	assert.JSONEq(t, `{"type":"pong"}`, ws.expectReply(t))
	ws.expectSilence(t, 150*time.Millisecond)
}

func TestRoundTrip_ResponsesCorrelateByIDNotOrder(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	ws := newWireServer(t)
	connect(t, ws, func(ctx context.Context, req bridge.Request) (any, error) {
		if req.Action == "slow" {
			<-release
		}
		return req.Action, nil
	})

	ws.send(t, `{"id":1,"action":"slow"}`)
	ws.send(t, `{"id":2,"action":"fast"}`)

	// The fast request finishes first even though it arrived second.
	assert.JSONEq(t, `{"id":2,"result":"fast"}`, ws.expectReply(t))
	close(release)
	assert.JSONEq(t, `{"id":1,"result":"slow"}`, ws.expectReply(t))
}

func TestRoundTrip_UnsupportedShapesAreNeverAnswered(t *testing.T) {
	t.Parallel()
	ws := newWireServer(t)
	connect(t, ws, func(ctx context.Context, req bridge.Request) (any, error) {
		return "reply", nil
	})

	ws.send(t, `{"id":"superficial-id","kind":"mystery"}`)
	ws.send(t, `not json at all`)
	ws.send(t, `[1,2,3]`)
	ws.send(t, `{"id":"real","action":"noop"}`)

	require.JSONEq(t, `{"id":"real","result":"reply"}`, ws.expectReply(t))
	ws.expectSilence(t, 150*time.Millisecond)
}
