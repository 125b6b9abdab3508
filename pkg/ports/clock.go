package ports

import "time"

// Timer is a pending callback scheduled on a Clock.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the callback
	// already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks. Implementations decide on which goroutine the
// callback runs; the controller expects it to run on its own loop.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
