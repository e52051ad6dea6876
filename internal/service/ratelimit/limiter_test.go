package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestAllowRefills(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	l := NewWithClock(clk.now)

	assert.True(t, l.Allow("k", 2, 1))
	assert.True(t, l.Allow("k", 2, 1))
	assert.False(t, l.Allow("k", 2, 1))

	clk.advance(time.Second)
	assert.True(t, l.Allow("k", 2, 1))
	assert.False(t, l.Allow("k", 2, 1))

	// keys are independent
	assert.True(t, l.Allow("other", 1, 1))
}

func TestIntervalOnePerWindow(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	iv := NewInterval(NewWithClock(clk.now), "oracle", 3*time.Second)

	assert.True(t, iv.Allow())
	clk.advance(time.Second)
	assert.False(t, iv.Allow())
	clk.advance(time.Second)
	assert.False(t, iv.Allow())
	clk.advance(time.Second)
	assert.True(t, iv.Allow())
	assert.False(t, iv.Allow())
}

func TestIntervalDisabled(t *testing.T) {
	iv := NewInterval(New(), "x", 0)
	for i := 0; i < 5; i++ {
		assert.True(t, iv.Allow())
	}
}
