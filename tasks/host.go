package tasks

import "time"

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if it already ran or was stopped.
	Stop() bool
}

// Host is the environment that runs scheduled work. Both callbacks must be
// invoked on the host's single logical thread.
type Host interface {
	// QueueMicrotask runs fn after the current unit of work finishes and
	// before any timer fires.
	QueueMicrotask(fn func())

	// AfterFunc runs fn once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}
