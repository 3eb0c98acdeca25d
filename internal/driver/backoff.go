package driver

import "time"

const (
	defaultBackoffInitial = time.Second
	defaultBackoffMax     = 30 * time.Second
)

// Backoff produces the delay before each reconnect attempt: an immediate
// first try, then doubling from the initial delay up to the cap. Not safe
// for concurrent use; the driver loop is the only caller.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	next    time.Duration
}

func NewBackoff(initial, max time.Duration) *Backoff {
	return &Backoff{initial: initial, max: max}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the schedule.
func (b *Backoff) Next() time.Duration {
	delay := b.next

	switch {
	case b.next == 0:
		b.next = b.initial
	case b.next < b.max:
		b.next *= 2
		if b.next > b.max {
			b.next = b.max
		}
	}

	return delay
}

// Reset restores the immediate-retry schedule after a successful connect.
func (b *Backoff) Reset() {
	b.next = 0
}
