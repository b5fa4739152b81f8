package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/openuba/model-hub/internal/safego"
)

// DefaultSearchDebounce is how long a query must stay unchanged before it is reported.
const DefaultSearchDebounce = 800 * time.Millisecond

// Debouncer reports a search only after the query has been stable for the
// delay. Each Trigger cancels the pending timer and starts a new one; on
// expiry the latest query and result count are emitted.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	emit    func(query string, count int)
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer calls emit at most once per quiet period. A non-positive delay
// uses DefaultSearchDebounce.
func NewDebouncer(delay time.Duration, emit func(query string, count int)) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &Debouncer{delay: delay, emit: emit}
}

// Trigger records a query change. Blank queries cancel any pending report
// and are never emitted themselves.
func (d *Debouncer) Trigger(query string, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.cancelLocked()

	if strings.TrimSpace(query) == "" {
		return
	}

	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, query, count) })
}

func (d *Debouncer) fire(gen uint64, query string, count int) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		// superseded between expiry and acquiring the lock
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	safego.Run("search-report", func() { d.emit(query, count) })
}

// cancelLocked stops the pending timer and invalidates any callback already
// in flight.
func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a report is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending report. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cancelLocked()
}
