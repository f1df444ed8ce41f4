package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "late") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "never") })

	c.Advance(250 * time.Millisecond)

	assert.Equal(t, []string{"early", "late"}, fired)
	assert.Equal(t, start.Add(250*time.Millisecond), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestFake_StopPreventsCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	called := false
	timer := c.AfterFunc(time.Millisecond, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Second)
	assert.False(t, called)
}

func TestFake_CallbackMayUseClock(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var stopped bool
	var other Timer
	other = c.AfterFunc(time.Hour, func() {})
	c.AfterFunc(time.Millisecond, func() { stopped = other.Stop() })

	c.Advance(time.Second)
	assert.True(t, stopped)
	assert.Equal(t, 0, c.Pending())
}
