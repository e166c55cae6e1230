package ko

// Observable is a mutable value cell.
type Observable[T any] struct {
	Subscribable
	latest   T
	comparer func(a, b T) bool
}

// NewObservable creates a cell holding initial. A nil rt uses Default.
func NewObservable[T any](rt *Runtime, initial T) *Observable[T] {
	o := &Observable[T]{latest: initial, comparer: PrimitiveEqual[T]}
	o.init(rt, o)
	if o.rt.deferUpdates {
		Deferred()(&o.Subscribable)
	}
	return o
}

// Value returns the current value and registers o with the evaluating node.
func (o *Observable[T]) Value() T {
	o.runtime().Register(o)
	return o.latest
}

// Peek returns the current value without registering a dependency.
func (o *Observable[T]) Peek() T { return o.latest }

// Set stores v and notifies when it differs from the current value.
func (o *Observable[T]) Set(v T) {
	if !o.isDifferent(o.latest, v) {
		return
	}
	o.ValueWillMutate()
	o.latest = v
	o.ValueHasMutated()
}

// Write is Set. It never fails.
func (o *Observable[T]) Write(v T) error {
	o.Set(v)
	return nil
}

// Update sets the result of fn applied to the current value.
func (o *Observable[T]) Update(fn func(T) T) {
	o.Set(fn(o.latest))
}

// ValueWillMutate announces an in-place mutation of the current value.
func (o *Observable[T]) ValueWillMutate() {
	o.NotifySubscribers(o.latest, EventBeforeChange)
}

// ValueHasMutated notifies subscribers after an in-place mutation.
func (o *Observable[T]) ValueHasMutated() {
	o.NotifySubscribers(o.latest, EventSpectate)
	o.NotifySubscribers(o.latest, EventChange)
}

// SetEqualityComparer replaces the comparer. A nil comparer notifies on every
// write.
func (o *Observable[T]) SetEqualityComparer(fn func(a, b T) bool) {
	o.comparer = fn
}

func (o *Observable[T]) Subscribe(fn func(T)) *Subscription {
	return o.Subscribable.Subscribe(typed(fn))
}

func (o *Observable[T]) Extend(exts ...Extender) *Observable[T] {
	o.Subscribable.Extend(exts...)
	return o
}

// HasWriteFunction is always true for an Observable.
func (o *Observable[T]) HasWriteFunction() bool { return true }

func (o *Observable[T]) isObservable() {}

func (o *Observable[T]) isDifferent(a, b T) bool {
	return o.comparer == nil || !o.comparer(a, b)
}

func (o *Observable[T]) valuesDiffer(a, b any) bool {
	av, _ := a.(T)
	bv, _ := b.(T)
	return o.isDifferent(av, bv)
}

func (o *Observable[T]) limitPeek() any { return o.latest }
func (o *Observable[T]) limitCurrent() any { return o.latest }

func (o *Observable[T]) setAlwaysNotify(always bool) {
	if always {
		o.comparer = nil
		return
	}
	o.comparer = PrimitiveEqual[T]
}

func typed[T any](fn func(T)) func(any) {
	if fn == nil {
		return nil
	}
	return func(v any) {
		tv, _ := v.(T)
		fn(tv)
	}
}
