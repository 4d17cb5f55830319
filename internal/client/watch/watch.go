// Package watch provides a debouncer for re-running extraction after bursts
// of page changes settle.
package watch

import (
	"context"
	"sync"
	"time"
)

// Func is the work a Debouncer runs once a burst of triggers settles. The
// context is cancelled when a newer trigger supersedes the run or when the
// per-run timeout elapses.
type Func func(ctx context.Context)

// Debouncer coalesces bursts of Trigger calls into a single run of its
// function, waiting for a quiet period first. A trigger arriving while a run
// is pending resets the quiet timer; a trigger arriving while a run is in
// flight cancels that run before scheduling the next one.
type Debouncer struct {
	delay   time.Duration
	timeout time.Duration
	run     Func

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
}

// NewDebouncer returns a Debouncer that runs fn after delay of quiet,
// bounding each run by timeout. A zero timeout leaves runs unbounded.
func NewDebouncer(delay, timeout time.Duration, fn Func) *Debouncer {
	return &Debouncer{delay: delay, timeout: timeout, run: fn}
}

// Trigger notes a change. The function runs once no further trigger has
// arrived for the configured delay.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	ctx := context.Background()
	var cancel context.CancelFunc
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	d.gen++
	gen := d.gen
	d.cancel = cancel
	d.timer = nil
	d.mu.Unlock()

	defer func() {
		cancel()
		d.mu.Lock()
		// Only clear the shared slot if no newer run has claimed it.
		if d.gen == gen {
			d.cancel = nil
		}
		d.mu.Unlock()
	}()
	d.run(ctx)
}

// Stop cancels any pending or in-flight run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
