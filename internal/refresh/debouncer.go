// Package refresh coalesces bursts of change notifications into single
// recompute cycles.
package refresh

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a pending call runs.
const DefaultDelay = 500 * time.Millisecond

type pending struct {
	timer *time.Timer
	gen   uint64
}

// Debouncer runs the most recent function triggered for a key once no new
// trigger for that key has arrived for the configured delay. A superseded
// call never runs, even when its timer already fired.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	gen     uint64
	stopped bool
}

// NewDebouncer creates a Debouncer. A non-positive delay uses DefaultDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, pending: make(map[string]*pending)}
}

// Trigger schedules fn for key, replacing any pending call for that key.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	p := &pending{gen: gen}
	p.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		cur, ok := d.pending[key]
		if !ok || cur.gen != gen || d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = p
}

// Cancel drops the pending call for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// Pending returns the number of scheduled calls.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for k, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, k)
	}
}
