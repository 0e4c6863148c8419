package connection

import "time"

// timer is a cancelable pending callback.
type timer interface {
	// Stop cancels the timer. It reports whether the callback was
	// prevented from running.
	Stop() bool
}

// clock creates timers. The manager schedules all heartbeat and
// reconnect work through its clock, so tests can substitute a fake.
type clock interface {
	AfterFunc(d time.Duration, f func()) timer
}

// systemClock is the production clock backed by the time package.
type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}
