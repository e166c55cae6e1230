package ko

import (
	"fmt"
	"slices"
)

// Events delivered by the graph. Collaborators may notify any other name.
const (
	EventChange       = "change"
	EventBeforeChange = "beforeChange"
	EventSpectate     = "spectate"
	EventDirty        = "dirty"
	EventAwake        = "awake"
	EventAsleep       = "asleep"
)

// Dependency is anything a Computed can depend on. It is implemented by
// embedding Subscribable.
type Dependency interface {
	subscribable() *Subscribable
}

// Subscribable is the publish/subscribe core shared by every node. The zero
// value is ready to use and belongs to the calling goroutine's Default
// runtime.
type Subscribable struct {
	rt   *Runtime
	self any

	id            uint64
	versionNumber uint64
	subscriptions map[string][]*Subscription

	limiter             *limiter
	changeSnapshot      []*Subscription
	notificationPending bool
	deferUpdates        bool
}

// hooks a node embedding Subscribable may implement
type (
	subscriptionHooks interface {
		beforeSubscriptionAdd(event string)
		afterSubscriptionRemove(event string)
	}
	versionSource interface {
		currentVersion() uint64
	}
	valueComparer interface {
		valuesDiffer(a, b any) bool
	}
	limitTarget interface {
		// limitPeek reads the latest value, evaluating if needed, without
		// registering a dependency.
		limitPeek() any
		// limitCurrent settles a node that passed itself as the pending
		// value of a limited change.
		limitCurrent() any
	}
	notifyPolicy interface {
		setAlwaysNotify(always bool)
	}
)

func NewSubscribable(rt *Runtime) *Subscribable {
	s := &Subscribable{}
	s.init(rt, s)
	return s
}

func (s *Subscribable) init(rt *Runtime, self any) {
	if rt == nil {
		rt = Default()
	}
	s.rt = rt
	s.self = self
	s.subscriptions = map[string][]*Subscription{}
}

func (s *Subscribable) subscribable() *Subscribable { return s }

func (s *Subscribable) runtime() *Runtime {
	if s.rt == nil {
		s.init(nil, s)
	}
	return s.rt
}

// Runtime returns the runtime the node belongs to.
func (s *Subscribable) Runtime() *Runtime { return s.runtime() }

func (s *Subscribable) Subscribe(fn func(value any)) *Subscription {
	return s.SubscribeEvent(EventChange, fn)
}

// SubscribeEvent registers fn for event. Subscribers run in the order they
// subscribed.
func (s *Subscribable) SubscribeEvent(event string, fn func(value any)) *Subscription {
	if fn == nil {
		panic(fmt.Errorf("subscribe %q: %w", event, ErrNilCallback))
	}
	s.runtime()
	if event == "" {
		event = EventChange
	}

	sub := &Subscription{target: s, event: event, callback: fn}
	if h, ok := s.self.(subscriptionHooks); ok {
		h.beforeSubscriptionAdd(event)
	}
	s.subscriptions[event] = append(s.subscriptions[event], sub)
	return sub
}

func (s *Subscribable) remove(sub *Subscription) {
	subs := s.subscriptions[sub.event]
	if i := slices.Index(subs, sub); i >= 0 {
		s.subscriptions[sub.event] = slices.Delete(subs, i, i+1)
	}
	if h, ok := s.self.(subscriptionHooks); ok {
		h.afterSubscriptionRemove(sub.event)
	}
}

// NotifySubscribers delivers value to the subscribers of event. Change
// notifications bump the version first. When the node is limited, change and
// beforeChange notifications go through the limiter instead.
func (s *Subscribable) NotifySubscribers(value any, event string) {
	if event == "" {
		event = EventChange
	}
	if l := s.limiter; l != nil {
		switch event {
		case EventChange:
			l.change(value, false, false)
			return
		case EventBeforeChange:
			l.beforeChange(value)
			return
		}
	}
	s.notify(value, event)
}

func (s *Subscribable) notify(value any, event string) {
	if event == EventChange {
		s.versionNumber++
	}
	if !s.HasSubscriptionsForEvent(event) {
		return
	}

	var subs []*Subscription
	if event == EventChange && s.changeSnapshot != nil {
		subs = s.changeSnapshot
	} else {
		subs = slices.Clone(s.subscriptions[event])
	}

	// callbacks must not become dependencies of whatever is evaluating
	rt := s.runtime()
	rt.Begin(nil)
	defer rt.End()
	for _, sub := range subs {
		if !sub.disposed {
			sub.callback(value)
		}
	}
}

// Version increases on every change notification.
func (s *Subscribable) Version() uint64 {
	if v, ok := s.self.(versionSource); ok {
		return v.currentVersion()
	}
	return s.versionNumber
}

func (s *Subscribable) HasChanged(version uint64) bool {
	return s.Version() != version
}

func (s *Subscribable) HasSubscriptionsForEvent(event string) bool {
	return len(s.subscriptions[event]) > 0
}

// SubscriptionsCount counts the subscribers of event. An empty event counts
// every subscriber except dirty ones.
func (s *Subscribable) SubscriptionsCount(event string) int {
	if event != "" {
		return len(s.subscriptions[event])
	}
	total := 0
	for ev, subs := range s.subscriptions {
		if ev != EventDirty {
			total += len(subs)
		}
	}
	return total
}

// Extend applies extenders in order.
func (s *Subscribable) Extend(exts ...Extender) {
	for _, ext := range exts {
		ext(s)
	}
}

func (s *Subscribable) differs(a, b any) bool {
	if c, ok := s.self.(valueComparer); ok {
		return c.valuesDiffer(a, b)
	}
	return true
}

func (s *Subscribable) peekForLimit() any {
	if t, ok := s.self.(limitTarget); ok {
		return t.limitPeek()
	}
	return nil
}

func (s *Subscribable) currentForLimit() any {
	if t, ok := s.self.(limitTarget); ok {
		return t.limitCurrent()
	}
	return nil
}
