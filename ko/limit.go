package ko

import "slices"

// LimitFunc builds the coalescing strategy of a limited node. It receives the
// callback that delivers the pending notification and returns the function
// called on every change. The strategy decides when callback runs.
type LimitFunc func(callback func()) func()

type limiter struct {
	s      *Subscribable
	finish func()

	previous    any
	hasPrevious bool
	pending     any
	pendingSelf bool

	didUpdate          bool
	notifyNextChange   bool
	ignoreBeforeChange bool
}

// Limit routes change and beforeChange notifications through fn. Limiting a
// node again replaces the strategy.
func (s *Subscribable) Limit(fn LimitFunc) {
	s.runtime()
	l := &limiter{s: s}
	l.finish = fn(l.flush)
	s.limiter = l
}

func (l *limiter) flush() {
	s := l.s
	s.notificationPending = false

	// a node that passed itself is evaluated now, as late as possible
	if l.pendingSelf {
		l.pending = s.currentForLimit()
		l.pendingSelf = false
	}

	shouldNotify := l.notifyNextChange || (l.didUpdate && l.isDifferent(l.previous, l.pending))
	l.didUpdate, l.notifyNextChange, l.ignoreBeforeChange = false, false, false
	if shouldNotify {
		l.previous, l.hasPrevious = l.pending, true
		s.notify(l.pending, EventChange)
	}
}

// change records a pending change. isDirty marks a notification that only
// says the value may have changed.
func (l *limiter) change(value any, isDirty, isSelf bool) {
	s := l.s
	if !isDirty || !s.notificationPending {
		l.didUpdate = !isDirty
	}
	s.changeSnapshot = slices.Clone(s.subscriptions[EventChange])
	s.notificationPending = true
	l.ignoreBeforeChange = true
	l.pending, l.pendingSelf = value, isSelf
	l.finish()
}

func (l *limiter) beforeChange(value any) {
	if l.ignoreBeforeChange {
		return
	}
	l.previous, l.hasPrevious = value, true
	l.s.notify(value, EventBeforeChange)
}

func (l *limiter) recordUpdate() {
	l.didUpdate = true
}

// notifyNextChangeIfDifferent forces the next flush to notify when a read
// during a pending notification already sees a value other than the last
// one delivered.
func (l *limiter) notifyNextChangeIfDifferent() {
	if l.isDifferent(l.previous, l.s.peekForLimit()) {
		l.notifyNextChange = true
	}
}

func (l *limiter) isDifferent(a, b any) bool {
	if !l.hasPrevious {
		return true
	}
	return l.s.differs(a, b)
}
