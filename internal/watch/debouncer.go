package watch

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of change notifications into single triggers:
//   - a quiet window restarts on every request
//   - MaxDelay bounds how long a steady stream of changes can postpone a trigger
type Debouncer struct {
	quietWindow time.Duration
	maxDelay    time.Duration
	requests    chan string
	fire        func(cause, reason string)
}

// NewDebouncer creates a Debouncer that calls fire from its Run goroutine.
func NewDebouncer(quietWindow, maxDelay time.Duration, fire func(cause, reason string)) *Debouncer {
	if maxDelay < quietWindow {
		maxDelay = quietWindow
	}
	return &Debouncer{
		quietWindow: quietWindow,
		maxDelay:    maxDelay,
		requests:    make(chan string, 64),
		fire:        fire,
	}
}

// Request records a change. It never blocks; when the buffer is full the
// pending trigger already covers the change.
func (d *Debouncer) Request(reason string) {
	select {
	case d.requests <- reason:
	default:
	}
}

// Run processes requests until ctx is done.
func (d *Debouncer) Run(ctx context.Context) {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	var (
		quietC     <-chan time.Time
		maxC       <-chan time.Time
		lastReason string
	)

	emit := func(cause string) {
		quietTimer.Stop()
		maxTimer.Stop()
		quietC, maxC = nil, nil
		d.fire(cause, lastReason)
	}

	for {
		select {
		case <-ctx.Done():
			quietTimer.Stop()
			maxTimer.Stop()
			return
		case reason := <-d.requests:
			lastReason = reason
			resetTimer(quietTimer, d.quietWindow)
			quietC = quietTimer.C
			if maxC == nil {
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}
		case <-quietC:
			emit("quiet")
		case <-maxC:
			emit("max_delay")
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
