// Package debounce coalesces bursts of calls into one call after a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once no new trigger has
// arrived for the configured delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// New returns a Debouncer with the given quiet period. A non-positive delay runs
// triggered functions immediately on their own goroutine.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Trigger schedules fn, replacing any pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || fn == nil {
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(max(d.delay, 0), func() {
		d.mu.Lock()
		// a later Trigger or Cancel may have raced the timer
		live := !d.stopped && d.seq == seq
		if live {
			d.timer = nil
		}
		d.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Cancel drops the pending function, if any, and reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	d.seq++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// Stop cancels any pending function and ignores all later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}
