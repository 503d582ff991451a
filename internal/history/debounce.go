package history

import "time"

// DefaultInterval is the minimum spacing of checkpoints taken mid-gesture.
const DefaultInterval = 350 * time.Millisecond

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Debouncer decides whether enough time has passed since the last mark.
// The zero value is due immediately and uses DefaultInterval.
type Debouncer struct {
	Interval time.Duration
	last     time.Time
	marked   bool
}

// NewDebouncer returns a Debouncer with the given interval, or
// DefaultInterval when interval is not positive.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{Interval: interval}
}

// Due reports whether now is at least Interval after the last mark.
func (d *Debouncer) Due(now time.Time) bool {
	if !d.marked {
		return true
	}
	iv := d.Interval
	if iv <= 0 {
		iv = DefaultInterval
	}
	return now.Sub(d.last) >= iv
}

// Mark records now as the time of the last checkpoint.
func (d *Debouncer) Mark(now time.Time) {
	d.last = now
	d.marked = true
}

// Reset forgets the last mark.
func (d *Debouncer) Reset() {
	d.last = time.Time{}
	d.marked = false
}
