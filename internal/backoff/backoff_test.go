package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_WithinJitterBounds(t *testing.T) {
	p := Policy{Initial: 1 * time.Second, Max: 30 * time.Second}

	for attempt := 0; attempt <= 10; attempt++ {
		base := 1 * time.Second << uint(attempt)
		if base > p.Max {
			base = p.Max
		}
		// Jitter is random; sample a few times per attempt.
		for i := 0; i < 20; i++ {
			d := p.Delay(attempt)
			assert.GreaterOrEqual(t, d, base, "attempt %d", attempt)
			assert.Less(t, d, base+time.Duration(0.3*float64(base))+time.Millisecond, "attempt %d", attempt)
		}
	}
}

func TestDelay_CappedAtMax(t *testing.T) {
	p := Policy{Initial: 1 * time.Second, Max: 30 * time.Second}

	for i := 0; i < 20; i++ {
		d := p.Delay(60) // way past the point where the cap takes over
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.LessOrEqual(t, d, 39*time.Second)
	}
}

func TestDelay_NegativeAttemptTreatedAsZero(t *testing.T) {
	p := Policy{Initial: 1 * time.Second, Max: 30 * time.Second}

	d := p.Delay(-3)
	assert.GreaterOrEqual(t, d, 1*time.Second)
	assert.Less(t, d, 1300*time.Millisecond+time.Millisecond)
}
