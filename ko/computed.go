package ko

import (
	"fmt"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/kosignal/tasks"
)

// Computed is a value derived by a read function. Whatever the function reads
// becomes a dependency; a change to any dependency re-evaluates it.
type Computed[T any] struct {
	Subscribable
	latest   T
	hasValue bool
	comparer func(a, b T) bool

	read  func() T
	write func(T)

	dirty           bool
	stale           bool
	evaluating      bool
	disposed        bool
	pure            bool
	sleeping        bool
	deferEvaluation bool

	// a node bound to a lifetime is not disposed by a dead lifetime until
	// the lifetime has been seen alive once
	graceWindow    bool
	disposeWhen    func() bool
	lifetime       Lifetime
	cancelLifetime func()

	tracking map[uint64]*trackedDependency
	count    int

	throttled     bool
	throttle      time.Duration
	throttleTimer tasks.Timer
}

type trackedDependency struct {
	dep     Dependency
	target  *Subscribable
	order   int
	version uint64

	// both nil while the owner sleeps
	change *Subscription
	dirty  *Subscription
}

func (d *trackedDependency) dispose() {
	if d.change != nil {
		d.change.Dispose()
		d.change = nil
	}
	if d.dirty != nil {
		d.dirty.Dispose()
		d.dirty = nil
	}
}

type computedConfig struct {
	pure            bool
	deferEvaluation bool
	disposeWhen     func() bool
	lifetime        Lifetime
}

type ComputedOption func(*computedConfig)

// Pure makes the computed sleep while it has no change subscribers.
func Pure() ComputedOption {
	return func(c *computedConfig) { c.pure = true }
}

// DeferEvaluation skips the initial evaluation until the value is first read
// or subscribed to.
func DeferEvaluation() ComputedOption {
	return func(c *computedConfig) { c.deferEvaluation = true }
}

// DisposeWhen disposes the computed on the first evaluation where fn returns
// true.
func DisposeWhen(fn func() bool) ComputedOption {
	return func(c *computedConfig) { c.disposeWhen = fn }
}

// DisposeWith binds the computed to l.
func DisposeWith(l Lifetime) ComputedOption {
	return func(c *computedConfig) { c.lifetime = l }
}

func NewComputed[T any](rt *Runtime, read func() T, opts ...ComputedOption) *Computed[T] {
	return newComputed(rt, read, nil, opts)
}

func NewWritableComputed[T any](rt *Runtime, read func() T, write func(T), opts ...ComputedOption) *Computed[T] {
	return newComputed(rt, read, write, opts)
}

// NewPureComputed is NewComputed with Pure.
func NewPureComputed[T any](rt *Runtime, read func() T, opts ...ComputedOption) *Computed[T] {
	return newComputed(rt, read, nil, append(opts, Pure()))
}

func newComputed[T any](rt *Runtime, read func() T, write func(T), opts []ComputedOption) *Computed[T] {
	if read == nil {
		panic(fmt.Errorf("new computed: %w", ErrNoReadFunction))
	}
	cfg := computedConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Computed[T]{
		comparer:    PrimitiveEqual[T],
		read:        read,
		write:       write,
		dirty:       true,
		stale:       true,
		disposeWhen: cfg.disposeWhen,
		lifetime:    cfg.lifetime,
	}
	c.init(rt, c)

	if cfg.pure {
		c.pure, c.sleeping = true, true
	} else if cfg.deferEvaluation {
		c.deferEvaluation = true
	}
	if c.rt.deferUpdates {
		Deferred()(&c.Subscribable)
	}
	if c.lifetime != nil {
		c.graceWindow = true
	}

	if !c.sleeping && !c.deferEvaluation {
		c.evaluate(false)
	}

	if c.lifetime != nil && c.IsActive() {
		c.cancelLifetime = c.lifetime.OnRemoved(c.Dispose)
	}
	return c
}

// Value returns the current value, evaluating first if it is out of date, and
// registers c with the evaluating node.
func (c *Computed[T]) Value() T {
	if !c.disposed {
		c.rt.Register(c)
	}
	if c.dirty || (c.sleeping && c.haveDependenciesChanged()) {
		c.evaluate(false)
	}
	return c.latest
}

// Peek returns the current value without registering a dependency. A node
// that was never evaluated, or a sleeping one whose dependencies changed, is
// evaluated first.
func (c *Computed[T]) Peek() T { return c.peek(false) }

// PeekFresh is Peek that also evaluates a node marked dirty by a deferred
// dependency.
func (c *Computed[T]) PeekFresh() T { return c.peek(true) }

func (c *Computed[T]) peek(evaluate bool) T {
	if (c.dirty && (evaluate || c.count == 0)) || (c.sleeping && c.haveDependenciesChanged()) {
		c.evaluate(false)
	}
	return c.latest
}

// Write passes v to the write function.
func (c *Computed[T]) Write(v T) error {
	if c.write == nil {
		return fmt.Errorf("write computed: %w", ErrNotWritable)
	}
	c.write(v)
	return nil
}

func (c *Computed[T]) HasWriteFunction() bool { return c.write != nil }

func (c *Computed[T]) SetEqualityComparer(fn func(a, b T) bool) {
	c.comparer = fn
}

func (c *Computed[T]) Subscribe(fn func(T)) *Subscription {
	return c.Subscribable.Subscribe(typed(fn))
}

func (c *Computed[T]) Extend(exts ...Extender) *Computed[T] {
	c.Subscribable.Extend(exts...)
	return c
}

func (c *Computed[T]) DependenciesCount() int { return c.count }

// Dependencies lists the current dependencies in the order they were read.
func (c *Computed[T]) Dependencies() []Dependency {
	deps := make([]Dependency, c.count)
	for _, d := range c.tracking {
		deps[d.order] = d.dep
	}
	return deps
}

// HasAncestorDependency reports whether dep is a direct or transitive
// dependency.
func (c *Computed[T]) HasAncestorDependency(dep Dependency) bool {
	if c.count == 0 {
		return false
	}
	target := dep.subscribable()
	deps := c.Dependencies()
	for _, d := range deps {
		if d.subscribable() == target {
			return true
		}
	}
	for _, d := range deps {
		if a, ok := d.(interface{ HasAncestorDependency(Dependency) bool }); ok && a.HasAncestorDependency(dep) {
			return true
		}
	}
	return false
}

// IsActive is false once the node can never change again.
func (c *Computed[T]) IsActive() bool { return c.dirty || c.count > 0 }

func (c *Computed[T]) IsPure() bool { return c.pure }
func (c *Computed[T]) IsDisposed() bool { return c.disposed }

func (c *Computed[T]) isObservable() {}
func (c *Computed[T]) isComputed() {}

// Dispose drops every dependency subscription and the read function. It is
// safe to call more than once.
func (c *Computed[T]) Dispose() {
	c.dispose("")
}

func (c *Computed[T]) dispose(reason string) {
	if !c.sleeping {
		for _, d := range c.tracking {
			d.dispose()
		}
	}
	if c.cancelLifetime != nil {
		c.cancelLifetime()
		c.cancelLifetime = nil
	}
	if c.throttleTimer != nil {
		c.throttleTimer.Stop()
		c.throttleTimer = nil
	}

	wasDisposed := c.disposed
	c.tracking = nil
	c.count = 0
	c.disposed = true
	c.stale, c.dirty, c.sleeping = false, false, false
	c.lifetime = nil
	c.disposeWhen = nil
	c.read = nil

	if !wasDisposed {
		c.rt.metrics.disposed()
		if reason != "" {
			c.rt.logger.Debug("computed disposed", "id", c.id, "reason", reason)
		}
	}
}

func (c *Computed[T]) evaluate(notifyChange bool) bool {
	if c.evaluating || c.disposed {
		return false
	}

	if reason := c.disposalReason(); reason != "" {
		if !c.graceWindow {
			c.dispose(reason)
			return false
		}
	} else {
		c.graceWindow = false
	}

	c.evaluating = true
	defer func() { c.evaluating = false }()
	return c.evaluateTracked(notifyChange)
}

func (c *Computed[T]) disposalReason() string {
	if c.lifetime != nil && !c.lifetime.Alive() {
		return "lifetime ended"
	}
	if c.disposeWhen != nil && IgnoreDependencies(c.rt, c.disposeWhen) {
		return "dispose condition met"
	}
	return ""
}

func (c *Computed[T]) evaluateTracked(notifyChange bool) bool {
	isInitial := !c.pure && c.count == 0
	previous := c.tracking
	confirmed := mapset.NewThreadUnsafeSet[uint64]()

	c.tracking = make(map[uint64]*trackedDependency, len(previous))
	c.count = 0
	c.rt.metrics.evaluated()

	c.rt.Begin(&Frame{
		Callback: func(dep Dependency, id uint64) {
			c.track(dep, id, previous, confirmed)
		},
		Computed:  c,
		IsInitial: isInitial,
	})
	value := c.readThenEnd(previous, confirmed)

	var changed bool
	if c.count == 0 {
		// nothing to react to, the value is final
		c.dispose("no dependencies")
		changed = true
	} else {
		changed = !c.hasValue || c.isDifferent(c.latest, value)
	}

	if changed {
		if !c.sleeping {
			c.NotifySubscribers(c.latest, EventBeforeChange)
		} else {
			c.versionNumber++
		}

		c.latest, c.hasValue = value, true
		c.NotifySubscribers(c.latest, EventSpectate)

		if !c.sleeping && notifyChange {
			c.NotifySubscribers(c.latest, EventChange)
		}
		if c.limiter != nil {
			c.limiter.recordUpdate()
		}
	}

	if isInitial {
		c.NotifySubscribers(c.latest, EventAwake)
	}
	return changed
}

// readThenEnd runs the read function and then unsubscribes from every
// previous dependency this pass did not read, even when the read panics.
func (c *Computed[T]) readThenEnd(previous map[uint64]*trackedDependency, confirmed mapset.Set[uint64]) T {
	defer func() {
		c.rt.End()

		if len(previous) > 0 && !c.sleeping {
			before := mapset.NewThreadUnsafeSet[uint64]()
			for id := range previous {
				before.Add(id)
			}
			unused := before.Difference(confirmed).ToSlice()
			slices.Sort(unused)
			for _, id := range unused {
				previous[id].dispose()
			}
		}
		c.stale, c.dirty = false, false
	}()
	return c.read()
}

func (c *Computed[T]) track(dep Dependency, id uint64, previous map[uint64]*trackedDependency, confirmed mapset.Set[uint64]) {
	if c.disposed {
		return
	}

	target := dep.subscribable()
	if entry, ok := previous[id]; ok && !confirmed.Contains(id) {
		confirmed.Add(id)
		c.addTracking(id, entry)
	} else if _, ok := c.tracking[id]; !ok {
		entry := &trackedDependency{dep: dep, target: target}
		if !c.sleeping {
			c.subscribeTo(entry)
		}
		c.addTracking(id, entry)
	}

	if target.notificationPending && target.limiter != nil {
		target.limiter.notifyNextChangeIfDifferent()
	}
}

func (c *Computed[T]) addTracking(id uint64, entry *trackedDependency) {
	if c.pure && entry.target == &c.Subscribable {
		panic(fmt.Errorf("evaluate computed: %w", ErrPureRecursion))
	}
	entry.order = c.count
	c.count++
	entry.version = entry.target.Version()
	c.tracking[id] = entry
}

func (c *Computed[T]) subscribeTo(entry *trackedDependency) {
	target := entry.target
	if target.deferUpdates {
		entry.dirty = target.SubscribeEvent(EventDirty, func(any) { c.markDirty() })
		entry.change = target.SubscribeEvent(EventChange, func(any) { c.respondToChange() })
		return
	}
	entry.change = target.SubscribeEvent(EventChange, func(any) { c.evaluatePossiblyAsync() })
}

func (c *Computed[T]) haveDependenciesChanged() bool {
	for _, d := range c.tracking {
		if (c.limiter != nil && d.target.notificationPending) || d.target.HasChanged(d.version) {
			return true
		}
	}
	return false
}

// markDirty handles a deferred dependency's dirty event.
func (c *Computed[T]) markDirty() {
	if c.limiter != nil && !c.evaluating {
		c.evalDelayed(false)
	}
}

// respondToChange ignores a change when a delayed notification is already
// scheduled, remembering only that the value is now stale.
func (c *Computed[T]) respondToChange() {
	if !c.notificationPending {
		c.evaluatePossiblyAsync()
	} else if c.dirty {
		c.stale = true
	}
}

func (c *Computed[T]) evaluatePossiblyAsync() {
	switch {
	case c.throttled:
		if c.throttleTimer != nil {
			c.throttleTimer.Stop()
		}
		c.throttleTimer = c.rt.host.AfterFunc(c.throttle, func() {
			c.throttleTimer = nil
			c.evaluate(true)
		})
	case c.limiter != nil:
		c.evalDelayed(true)
	default:
		c.evaluate(true)
	}
}

// evalDelayed hands the node itself to the limiter so evaluation waits until
// the notification is delivered.
func (c *Computed[T]) evalDelayed(isChange bool) {
	c.limiter.beforeChange(c.latest)
	c.dirty = true
	if isChange {
		c.stale = true
	}
	c.limiter.change(c, !isChange, true)
}

func (c *Computed[T]) limitCurrent() any {
	if !c.sleeping {
		if c.stale {
			c.evaluate(false)
		} else {
			c.dirty = false
		}
	}
	return c.latest
}

func (c *Computed[T]) limitPeek() any { return c.peek(true) }

func (c *Computed[T]) isDifferent(a, b T) bool {
	return c.comparer == nil || !c.comparer(a, b)
}

func (c *Computed[T]) valuesDiffer(a, b any) bool {
	av, _ := a.(T)
	bv, _ := b.(T)
	return c.isDifferent(av, bv)
}

func (c *Computed[T]) setAlwaysNotify(always bool) {
	if always {
		c.comparer = nil
		return
	}
	c.comparer = PrimitiveEqual[T]
}
