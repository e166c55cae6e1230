package ko

// Subscription is a registered callback. Dispose it to stop notifications.
type Subscription struct {
	target   *Subscribable
	event    string
	callback func(any)
	disposed bool

	cancelLifetime func()
}

// Dispose removes the subscription. Calling it again does nothing.
func (s *Subscription) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	if s.cancelLifetime != nil {
		s.cancelLifetime()
		s.cancelLifetime = nil
	}
	s.target.remove(s)
}

func (s *Subscription) IsDisposed() bool { return s.disposed }

// Target is the node the subscription was made on.
func (s *Subscription) Target() *Subscribable { return s.target }

// DisposeWith disposes the subscription when l ends.
func (s *Subscription) DisposeWith(l Lifetime) *Subscription {
	if s.disposed {
		return s
	}
	if s.cancelLifetime != nil {
		s.cancelLifetime()
	}
	s.cancelLifetime = l.OnRemoved(s.Dispose)
	return s
}
