package bridge

import (
	"context"
	"fmt"
)

// dispatch invokes the currently registered handler with one canonical
// request and routes the outcome through the responder, if any. It runs on
// its own goroutine per request: handler calls for separate messages may be
// in flight concurrently, and replies correlate by id, not arrival order.
func (c *Client) dispatch(req Request, respond respondFunc) {
	handler := c.currentHandler()
	if handler == nil {
		// Neither wire protocol has a "no handler" error shape, so the
		// sender just never hears back.
		c.logger.Warn("no handler registered, dropping request", "action", req.Action)
		c.metrics.IncRequests(OutcomeDropped)
		return
	}

	c.logger.Info("handling request", "action", req.Action, "id", string(req.ID))
	result, err := invokeHandler(handler, req)
	if err != nil {
		c.logger.Error(err, "request failed", "action", req.Action)
		c.metrics.IncRequests(OutcomeError)
	} else {
		c.logger.Info("request completed", "action", req.Action)
		c.metrics.IncRequests(OutcomeOK)
	}

	if respond != nil {
		respond(result, err)
	}
}

// invokeHandler shields the client from panicking handlers; a panic becomes
// a failure outcome delivered to the remote caller like any other error.
func invokeHandler(h Handler, req Request) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(context.Background(), req)
}
