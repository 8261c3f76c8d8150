package nativeui

import (
	"sync"
	"time"
)

// Debouncer coalesces refresh triggers: the first Trigger in a burst arms
// a timer, later ones are absorbed, and the timer is never pushed back.
// When it fires, the work runs once on the UI thread. A non-positive
// interval degrades to immediate synchronous refresh, which the tests use.
type Debouncer struct {
	ui       UI
	interval time.Duration
	fire     func()

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	dead    bool
}

// NewDebouncer builds a scheduler that runs fire on the UI thread at most
// once per interval-wide burst of triggers.
func NewDebouncer(ui UI, interval time.Duration, fire func()) *Debouncer {
	return &Debouncer{ui: ui, interval: interval, fire: fire}
}

// Trigger requests a refresh. Redundant triggers while one is pending are
// absorbed without extending the deadline.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.dead || d.pending {
		d.mu.Unlock()
		return
	}
	if d.interval <= 0 {
		d.mu.Unlock()
		d.fire()
		return
	}
	d.pending = true
	d.timer = time.AfterFunc(d.interval, d.expire)
	d.mu.Unlock()
}

// expire runs on the timer goroutine; the actual refresh is posted to the
// UI thread and re-checks liveness there, covering the window between the
// timer firing and a concurrent Cancel.
func (d *Debouncer) expire() {
	d.mu.Lock()
	d.pending = false
	d.mu.Unlock()
	d.ui.Post(func() {
		d.mu.Lock()
		dead := d.dead
		d.mu.Unlock()
		if !dead {
			d.fire()
		}
	})
}

// Cancel stops any pending refresh and marks the scheduler dead. Called
// during component teardown so a destroyed widget cannot repaint.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dead = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
