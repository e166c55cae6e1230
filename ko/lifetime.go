package ko

// Lifetime is an external resource a node can be bound to, such as a view
// element or a request. A bound Computed is disposed when the lifetime ends.
type Lifetime interface {
	// Alive reports whether the resource is attached.
	Alive() bool

	// OnRemoved registers fn to run when the resource goes away and returns
	// a function that unregisters it.
	OnRemoved(fn func()) (cancel func())
}

// Scope is a Lifetime driven by hand. It is not alive until Attach and
// stops being alive at End.
type Scope struct {
	attached bool
	ended    bool

	next      int
	callbacks map[int]func()
}

func NewScope() *Scope {
	return &Scope{callbacks: map[int]func(){}}
}

func (s *Scope) Attach() {
	if !s.ended {
		s.attached = true
	}
}

func (s *Scope) Alive() bool { return s.attached && !s.ended }

func (s *Scope) OnRemoved(fn func()) func() {
	if s.ended {
		fn()
		return func() {}
	}
	id := s.next
	s.next++
	s.callbacks[id] = fn
	return func() { delete(s.callbacks, id) }
}

// End runs the removal callbacks in registration order.
func (s *Scope) End() {
	if s.ended {
		return
	}
	s.ended = true

	callbacks := s.callbacks
	s.callbacks = map[int]func(){}
	for id := 0; id < s.next; id++ {
		if fn, ok := callbacks[id]; ok {
			fn()
		}
	}
}
