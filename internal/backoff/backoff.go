// Package backoff computes reconnect delays: exponential growth from an
// initial delay, capped at a maximum, with random jitter added to avoid
// synchronized retry storms.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// jitterFraction is the upper bound of the random share added to each
// delay, as a fraction of the capped base delay.
const jitterFraction = 0.3

// Policy holds the delay bounds. Max must be >= Initial.
type Policy struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns the wait before reconnect attempt number attempt (zero
// based): min(Initial * 2^attempt, Max) plus jitter drawn uniformly from
// [0, 0.3*delay).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Beyond ~30 doublings the cap has long since taken over; clamping
	// keeps Exp2 out of overflow territory.
	if attempt > 30 {
		attempt = 30
	}
	base := float64(p.Initial) * math.Exp2(float64(attempt))
	if base > float64(p.Max) {
		base = float64(p.Max)
	}
	return time.Duration(base + rand.Float64()*jitterFraction*base)
}
