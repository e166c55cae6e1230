package ko

import "slices"

func (c *Computed[T]) beforeSubscriptionAdd(event string) {
	switch {
	case c.pure:
		c.wake(event)
	case c.deferEvaluation:
		// the first subscriber forces the deferred evaluation
		if event == EventChange || event == EventBeforeChange {
			c.Peek()
		}
	}
}

func (c *Computed[T]) afterSubscriptionRemove(event string) {
	if c.pure {
		c.sleep(event)
	}
}

// currentVersion evaluates a sleeping pure node whose dependencies moved so a
// version comparison against it is never stale.
func (c *Computed[T]) currentVersion() uint64 {
	if c.sleeping && (c.stale || c.haveDependenciesChanged()) {
		c.evaluate(false)
	}
	return c.versionNumber
}

// wake subscribes to the remembered dependencies when the first change
// subscriber arrives.
func (c *Computed[T]) wake(event string) {
	if c.disposed || !c.sleeping || event != EventChange {
		return
	}
	c.sleeping = false

	if c.stale || c.haveDependenciesChanged() {
		c.tracking = nil
		c.count = 0
		if c.evaluate(false) {
			c.versionNumber++
		}
	} else {
		ordered := make([]*trackedDependency, 0, len(c.tracking))
		for _, d := range c.tracking {
			ordered = append(ordered, d)
		}
		slices.SortFunc(ordered, func(a, b *trackedDependency) int { return a.order - b.order })
		for _, d := range ordered {
			c.subscribeTo(d)
		}

		// subscribing can wake dependencies that change as a result
		if c.haveDependenciesChanged() {
			if c.evaluate(false) {
				c.versionNumber++
			}
		}
	}

	if !c.disposed {
		c.NotifySubscribers(c.latest, EventAwake)
	}
}

// sleep drops dependency subscriptions when the last change subscriber
// leaves. Identities and versions are kept for the next wake.
func (c *Computed[T]) sleep(event string) {
	if c.disposed || event != EventChange || c.HasSubscriptionsForEvent(EventChange) {
		return
	}
	for _, d := range c.tracking {
		d.dispose()
	}
	c.sleeping = true
	c.NotifySubscribers(nil, EventAsleep)
}
