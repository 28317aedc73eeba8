package grid

import (
	"sync"
	"time"
)

// Default debounce delays for filter input.
const (
	DefaultTextDebounce  = 300 * time.Millisecond
	DefaultRangeDebounce = 250 * time.Millisecond
)

// Debouncer holds the latest pushed value and commits it once no new value
// has arrived for the delay. Later pushes supersede earlier ones.
type Debouncer[T any] struct {
	delay  time.Duration
	commit func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	has     bool
	gen     uint64
}

// NewDebouncer returns a Debouncer calling commit on its own goroutine.
func NewDebouncer[T any](delay time.Duration, commit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, commit: commit}
}

// Push replaces the pending value and restarts the timer.
func (d *Debouncer[T]) Push(v T) {
	d.PushAfter(v, d.delay)
}

// PushAfter is Push with a one-off delay.
func (d *Debouncer[T]) PushAfter(v T, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = v
	d.has = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, func() { d.fire(gen) })
}

// Pending returns the value waiting to be committed.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.has
}

// Flush commits the pending value now, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	v, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.commit(v)
	}
}

// Cancel drops the pending value without committing it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	v, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.commit(v)
	}
}

// take clears the pending slot. Callers hold mu.
func (d *Debouncer[T]) take() (T, bool) {
	var zero T
	v, ok := d.pending, d.has
	d.pending, d.has = zero, false
	d.gen++
	return v, ok
}
