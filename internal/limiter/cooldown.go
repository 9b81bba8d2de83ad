package limiter

import (
	"sync"
	"time"
)

// DefaultResendCooldown is the wait between verification-code sends.
const DefaultResendCooldown = 60

// Ticker is the part of *time.Ticker used by Cooldown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func realTicker(d time.Duration) Ticker { return timeTicker{t: time.NewTicker(d)} }

// Cooldown is a whole-second countdown started after each successful action.
// It decrements once per tick of its ticker, independently of how long the
// action itself took.
type Cooldown struct {
	mu        sync.Mutex
	seconds   int
	remaining int
	gen       int
	stop      chan struct{}

	newTicker func(time.Duration) Ticker
	onTick    func(remaining int)
}

var _ Limiter = (*Cooldown)(nil)

// CooldownOption customizes a Cooldown.
type CooldownOption func(*Cooldown)

// WithTicker replaces the one-second ticker factory.
func WithTicker(f func(time.Duration) Ticker) CooldownOption {
	return func(c *Cooldown) { c.newTicker = f }
}

// WithOnTick registers a callback invoked after every decrement, including the final 0.
func WithOnTick(fn func(remaining int)) CooldownOption {
	return func(c *Cooldown) { c.onTick = fn }
}

// NewCooldown constructs a cooldown of the given whole seconds.
func NewCooldown(seconds int, opts ...CooldownOption) *Cooldown {
	c := &Cooldown{seconds: seconds, newTicker: realTicker}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Allow reports whether no countdown is running.
func (c *Cooldown) Allow() (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining <= 0 {
		return true, 0
	}
	return false, time.Duration(c.remaining) * time.Second
}

// Remaining returns the whole seconds left.
func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Success (re)starts the countdown from the full period.
func (c *Cooldown) Success() {
	c.mu.Lock()
	c.stopLocked()
	if c.seconds <= 0 {
		c.mu.Unlock()
		return
	}
	c.remaining = c.seconds
	c.gen++
	gen := c.gen
	stop := make(chan struct{})
	c.stop = stop
	t := c.newTicker(time.Second)
	c.mu.Unlock()

	go c.run(gen, t, stop)
}

// Stop abandons the countdown and resets it to zero.
func (c *Cooldown) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.remaining = 0
	c.mu.Unlock()
}

func (c *Cooldown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Cooldown) run(gen int, t Ticker, stop <-chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				return
			}
			c.remaining--
			left := c.remaining
			if left <= 0 {
				c.remaining = 0
				left = 0
				c.stop = nil
			}
			cb := c.onTick
			c.mu.Unlock()

			if cb != nil {
				cb(left)
			}
			if left == 0 {
				return
			}
		}
	}
}
