// Package autosave coalesces bursts of ledger edits into single deferred
// persistence writes.
package autosave

import (
	"sync"
	"time"
)

// Delays for the single-shot save timer. Recording widens the window so a
// run of rapid clicks is persisted once, after the run ends.
const (
	DefaultDelay   = 5 * time.Second
	RecordingDelay = 15 * time.Second
)

// Coordinator debounces save requests: each Schedule restarts the delay,
// and the save function runs exactly once per quiescent period. The save
// function is invoked on the timer's goroutine.
type Coordinator struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	save  func()
}

// New creates an idle coordinator invoking save after each quiet period.
func New(save func()) *Coordinator {
	return &Coordinator{delay: DefaultDelay, save: save}
}

// SetDelay changes the debounce window for subsequent Schedule calls.
func (c *Coordinator) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// Schedule (re)starts the delay. Calling it again before the delay elapses
// restarts the window.
func (c *Coordinator) Schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Flush runs any pending save immediately and cancels the timer. A no-op
// when nothing is scheduled.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	pending := c.timer != nil && c.timer.Stop()
	c.timer = nil
	c.mu.Unlock()
	if pending {
		c.save()
	}
}

// Stop cancels any pending save without running it.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	c.timer = nil
	c.mu.Unlock()
	c.save()
}
