package session

import (
	"sync"
	"time"
)

const DefaultDebouncePeriod = 500 * time.Millisecond

// Debouncer collapses a rapidly changing input into a single emission: the
// latest value is delivered only after no new value has arrived for the quiet
// period. Intermediate values are never observable downstream.
type Debouncer struct {
	mu      sync.Mutex
	period  time.Duration
	timer   *time.Timer
	stopped bool
	emit    func(value string)
}

func NewDebouncer(period time.Duration, emit func(value string)) *Debouncer {
	if period <= 0 {
		period = DefaultDebouncePeriod
	}
	return &Debouncer{period: period, emit: emit}
}

// Input records a new live value, cancelling any pending emission.
func (d *Debouncer) Input(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.period, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if stopped {
			return
		}
		d.emit(value)
	})
}

// Stop cancels any pending emission. Further Input calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
