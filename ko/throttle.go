package ko

import (
	"time"

	"github.com/delaneyj/kosignal/tasks"
)

// Source is a readable node.
type Source[T any] interface {
	Dependency
	Value() T
	Peek() T
}

// WritableSource is a Source that accepts writes.
type WritableSource[T any] interface {
	Source[T]
	Write(v T) error
}

// Throttle delays target by d. When target is a Computed its evaluation is
// delayed so dependents see at most one update per window. The returned
// computed reads target and delays writes, keeping only the last write of a
// window.
func Throttle[T any](target WritableSource[T], d time.Duration) *Computed[T] {
	rt := target.subscribable().runtime()
	if c, ok := target.(*Computed[T]); ok {
		c.throttled, c.throttle = true, d
	}

	var timer tasks.Timer
	return NewWritableComputed(rt, target.Value, func(v T) {
		if timer != nil {
			timer.Stop()
		}
		timer = rt.host.AfterFunc(d, func() {
			timer = nil
			if err := target.Write(v); err != nil {
				rt.logger.Error("throttled write failed", "error", err)
			}
		})
	})
}
