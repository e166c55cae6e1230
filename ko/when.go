package ko

// When calls callback once, the first time predicate returns true. The
// returned subscription cancels the wait.
func When(rt *Runtime, predicate func() bool, callback func()) *Subscription {
	c := NewPureComputed(rt, predicate).Extend(NotifyAlways())

	var sub *Subscription
	sub = c.Subscribe(func(ok bool) {
		if ok {
			sub.Dispose()
			callback()
		}
	})

	// a predicate that already holds fires right away
	c.NotifySubscribers(c.Peek(), EventChange)
	return sub
}
