// Package clock paces the capture loop at a fixed frame rate.
package clock

import (
	"errors"
	"time"
)

// ErrZeroFPS is returned when a clock is built for 0 frames per second.
var ErrZeroFPS = errors.New("clock: fps must be at least 1")

// Clock ticks every 1/fps seconds of wall time.
type Clock struct {
	fps    uint32
	period time.Duration
	last   time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a clock started at the current instant.
func New(fps uint32) (*Clock, error) {
	if fps == 0 {
		return nil, ErrZeroFPS
	}
	c := &Clock{
		fps:    fps,
		period: time.Second / time.Duration(fps),
		now:    time.Now,
		sleep:  time.Sleep,
	}
	c.last = c.now()
	return c, nil
}

// FPS returns the target frame rate.
func (c *Clock) FPS() uint32 { return c.fps }

// Period returns the nominal tick period expressed in unit, e.g.
// Period(time.Millisecond) is 100 for a 10 fps clock.
func (c *Clock) Period(unit time.Duration) float64 {
	return float64(c.period) / float64(unit)
}

// Now returns the current instant of the clock's time source.
func (c *Clock) Now() time.Time { return c.now() }

// UseTime replaces the time source and resets the tick reference.
func (c *Clock) UseTime(now func() time.Time, sleep func(time.Duration)) {
	c.now, c.sleep = now, sleep
	c.Reset()
}

// Reset restarts the tick reference at the current instant.
func (c *Clock) Reset() {
	c.last = c.now()
}

// Tick sleeps until one period after the previous tick and returns the signed
// slack in nanoseconds: the actual interval minus the nominal one. Positive
// slack means the tick came late because the caller overran its budget.
func (c *Clock) Tick() float64 {
	deadline := c.last.Add(c.period)
	if wait := deadline.Sub(c.now()); wait > 0 {
		c.sleep(wait)
	}
	now := c.now()
	slack := now.Sub(c.last) - c.period
	c.last = now
	return float64(slack.Nanoseconds())
}
