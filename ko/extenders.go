package ko

import (
	"fmt"
	"time"

	"github.com/delaneyj/kosignal/tasks"
)

// Extender changes how a node notifies. Apply with Extend.
type Extender func(s *Subscribable)

// Deferred coalesces change notifications onto the runtime's task scheduler.
// A dirty event still fires synchronously on every change so deferred
// dependents can mark themselves stale without evaluating. Once deferred a
// node stays deferred.
func Deferred() Extender {
	return func(s *Subscribable) {
		if s.deferUpdates {
			return
		}
		s.deferUpdates = true

		rt := s.runtime()
		s.Limit(func(callback func()) func() {
			var handle tasks.Handle
			ignoreUpdates := false
			return func() {
				if ignoreUpdates {
					return
				}
				rt.tasks.Cancel(handle)
				handle = rt.tasks.Schedule(callback)

				ignoreUpdates = true
				defer func() { ignoreUpdates = false }()
				s.NotifySubscribers(nil, EventDirty)
			}
		})
	}
}

// LimitMethod decides when a rate limited notification is delivered. It is
// given the runtime's host for timers.
type LimitMethod func(host tasks.Host, callback func(), timeout time.Duration) func()

// NotifyAtFixedRate delivers at most once per timeout. The first change
// starts a timer and changes during the window only replace the value.
func NotifyAtFixedRate(host tasks.Host, callback func(), timeout time.Duration) func() {
	var timer tasks.Timer
	return func() {
		if timer != nil {
			return
		}
		timer = host.AfterFunc(timeout, func() {
			timer = nil
			callback()
		})
	}
}

// NotifyWhenChangesStop delivers once no change has happened for timeout.
func NotifyWhenChangesStop(host tasks.Host, callback func(), timeout time.Duration) func() {
	var timer tasks.Timer
	return func() {
		if timer != nil {
			timer.Stop()
		}
		timer = host.AfterFunc(timeout, callback)
	}
}

type RateLimitOptions struct {
	Timeout time.Duration

	// Method defaults to NotifyAtFixedRate.
	Method LimitMethod
}

// RateLimit delays change notifications by timeout, delivering the last value
// once per window. It replaces Deferred when both are applied.
func RateLimit(timeout time.Duration) Extender {
	return RateLimitWith(RateLimitOptions{Timeout: timeout})
}

func RateLimitWith(opts RateLimitOptions) Extender {
	if opts.Timeout < 0 {
		panic(fmt.Errorf("rate limit %s: %w", opts.Timeout, ErrInvalidRateLimit))
	}
	method := opts.Method
	if method == nil {
		method = NotifyAtFixedRate
	}

	return func(s *Subscribable) {
		s.deferUpdates = false
		host := s.runtime().host
		s.Limit(func(callback func()) func() {
			return method(host, callback, opts.Timeout)
		})
	}
}

// NotifyAlways makes every write and evaluation notify, even when the value
// is unchanged.
func NotifyAlways() Extender {
	return func(s *Subscribable) {
		if p, ok := s.self.(notifyPolicy); ok {
			p.setAlwaysNotify(true)
		}
	}
}

// NotifyWhenDifferent restores the default equality comparer.
func NotifyWhenDifferent() Extender {
	return func(s *Subscribable) {
		if p, ok := s.self.(notifyPolicy); ok {
			p.setAlwaysNotify(false)
		}
	}
}
