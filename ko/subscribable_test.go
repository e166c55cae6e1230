package ko

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribable(t *testing.T) {
	t.Run("events are delivered by name", func(t *testing.T) {
		rt, _ := newTestRuntime()
		s := NewSubscribable(rt)
		log := []any{}

		s.Subscribe(func(v any) { log = append(log, v) })
		s.SubscribeEvent("custom", func(v any) { log = append(log, "custom", v) })

		s.NotifySubscribers(1, EventChange)
		s.NotifySubscribers(2, "custom")
		s.NotifySubscribers(3, "")
		assert.Equal(t, []any{1, "custom", 2, 3}, log)
	})

	t.Run("version moves on change notifications only", func(t *testing.T) {
		rt, _ := newTestRuntime()
		s := NewSubscribable(rt)
		v0 := s.Version()

		s.NotifySubscribers(nil, "custom")
		assert.False(t, s.HasChanged(v0))

		// no subscribers still bumps the version
		s.NotifySubscribers(nil, EventChange)
		assert.True(t, s.HasChanged(v0))
		assert.Equal(t, v0+1, s.Version())
	})

	t.Run("subscriber snapshot per delivery", func(t *testing.T) {
		rt, _ := newTestRuntime()
		s := NewSubscribable(rt)
		log := []string{}

		var second *Subscription
		s.Subscribe(func(any) {
			log = append(log, "first")
			second.Dispose()
			s.Subscribe(func(any) { log = append(log, "late") })
		})
		second = s.Subscribe(func(any) { log = append(log, "second") })

		s.NotifySubscribers(nil, EventChange)
		assert.Equal(t, []string{"first"}, log)

		log = log[:0]
		s.NotifySubscribers(nil, EventChange)
		assert.Equal(t, []string{"first", "late"}, log)
	})

	t.Run("dispose is idempotent", func(t *testing.T) {
		rt, _ := newTestRuntime()
		s := NewSubscribable(rt)
		calls := 0
		sub := s.Subscribe(func(any) { calls++ })
		s.SubscribeEvent(EventDirty, func(any) {})

		assert.Equal(t, 1, s.SubscriptionsCount(EventChange))
		assert.Equal(t, 1, s.SubscriptionsCount(""))
		assert.Equal(t, 1, s.SubscriptionsCount(EventDirty))

		sub.Dispose()
		sub.Dispose()
		assert.True(t, sub.IsDisposed())
		assert.Same(t, s, sub.Target())
		assert.False(t, s.HasSubscriptionsForEvent(EventChange))

		s.NotifySubscribers(nil, EventChange)
		assert.Equal(t, 0, calls)
	})

	t.Run("nil callback panics", func(t *testing.T) {
		rt, _ := newTestRuntime()
		s := NewSubscribable(rt)
		err := panicErr(t, func() { s.Subscribe(nil) })
		assert.ErrorIs(t, err, ErrNilCallback)

		a := NewObservable(rt, 1)
		err = panicErr(t, func() { a.Subscribe(nil) })
		assert.ErrorIs(t, err, ErrNilCallback)
	})

	t.Run("zero value is usable", func(t *testing.T) {
		defer ReleaseDefault()

		var s Subscribable
		got := 0
		s.Subscribe(func(v any) { got = v.(int) })
		s.NotifySubscribers(4, EventChange)
		assert.Equal(t, 4, got)
		assert.Same(t, Default(), s.Runtime())
	})

	t.Run("subscription follows a lifetime", func(t *testing.T) {
		rt, _ := newTestRuntime()
		s := NewSubscribable(rt)
		scope := NewScope()

		sub := s.Subscribe(func(any) {}).DisposeWith(scope)
		require.False(t, sub.IsDisposed())

		scope.End()
		assert.True(t, sub.IsDisposed())
		assert.Equal(t, 0, s.SubscriptionsCount(""))
	})
}

func TestLimit(t *testing.T) {
	t.Run("custom strategy decides delivery", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 0)

		var deliver func()
		changes := 0
		a.Limit(func(callback func()) func() {
			deliver = callback
			return func() { changes++ }
		})

		values := []int{}
		a.Subscribe(func(v int) { values = append(values, v) })

		a.Set(1)
		a.Set(2)
		assert.Equal(t, 2, changes)
		assert.Empty(t, values)

		deliver()
		assert.Equal(t, []int{2}, values)

		// nothing new to deliver
		deliver()
		assert.Equal(t, []int{2}, values)
	})

	t.Run("before change fires once per window", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 0)
		var deliver func()
		a.Limit(func(callback func()) func() {
			deliver = callback
			return func() {}
		})

		before := []int{}
		a.SubscribeEvent(EventBeforeChange, func(v any) { before = append(before, v.(int)) })

		a.Set(1)
		a.Set(2)
		assert.Equal(t, []int{0}, before)

		deliver()
		a.Set(3)
		assert.Equal(t, []int{0, 2}, before)
	})
}
