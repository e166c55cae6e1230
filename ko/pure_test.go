package ko

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPureComputed(t *testing.T) {
	/*
	   a
	   |
	   p (pure)
	*/
	t.Run("sleep and wake round trip", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 1)
		calls := 0
		p := NewPureComputed(rt, func() int {
			calls++
			return a.Value() * 2
		})
		assert.Equal(t, 0, calls)

		assert.Equal(t, 2, p.Peek())
		assert.Equal(t, 2, p.Peek())
		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, a.SubscriptionsCount(EventChange))

		// asleep: a write is not observed until the next read
		a.Set(2)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 4, p.Peek())
		assert.Equal(t, 2, calls)

		seen := []int{}
		sub := p.Subscribe(func(v int) { seen = append(seen, v) })
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, a.SubscriptionsCount(EventChange))

		a.Set(3)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{6}, seen)

		sub.Dispose()
		assert.Equal(t, 0, a.SubscriptionsCount(EventChange))

		a.Set(4)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 8, p.Peek())
		assert.Equal(t, 4, calls)
	})

	t.Run("awake and asleep events", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 1)
		p := NewPureComputed(rt, a.Value)

		log := []string{}
		p.SubscribeEvent(EventAwake, func(any) { log = append(log, "awake") })
		p.SubscribeEvent(EventAsleep, func(any) { log = append(log, "asleep") })
		assert.Empty(t, log)

		sub := p.Subscribe(func(int) {})
		sub.Dispose()
		assert.Equal(t, []string{"awake", "asleep"}, log)
	})

	t.Run("waking re-evaluates when dependencies moved", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 1)
		calls := 0
		p := NewPureComputed(rt, func() int {
			calls++
			return a.Value()
		})
		p.Peek()
		a.Set(2)

		p.Subscribe(func(int) {})
		assert.Equal(t, 2, calls)
		assert.Equal(t, 2, p.Peek())
		assert.Equal(t, 1, a.SubscriptionsCount(EventChange))
	})

	/*
	   a
	   |
	   p1 (pure)
	   |
	   p2 (pure)
	*/
	t.Run("sleeping chain compares versions", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 1)
		var calls1, calls2 int
		p1 := NewPureComputed(rt, func() int {
			calls1++
			return a.Value() + 1
		})
		p2 := NewPureComputed(rt, func() int {
			calls2++
			return p1.Value() * 10
		})

		assert.Equal(t, 20, p2.Peek())
		assert.Equal(t, 20, p2.Peek())
		assert.Equal(t, 1, calls1)
		assert.Equal(t, 1, calls2)

		a.Set(2)
		assert.Equal(t, 30, p2.Peek())
		assert.Equal(t, 2, calls1)
		assert.Equal(t, 2, calls2)
		assert.Equal(t, 0, a.SubscriptionsCount(""))
	})

	t.Run("subscribing wakes the whole chain", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 1)
		p1 := NewPureComputed(rt, a.Value)
		p2 := NewPureComputed(rt, p1.Value)

		sub := p2.Subscribe(func(int) {})
		assert.Equal(t, 1, a.SubscriptionsCount(EventChange))
		assert.Equal(t, 1, p1.SubscriptionsCount(EventChange))

		sub.Dispose()
		assert.Equal(t, 0, a.SubscriptionsCount(EventChange))
		assert.Equal(t, 0, p1.SubscriptionsCount(EventChange))
	})

	t.Run("reading itself panics", func(t *testing.T) {
		rt, _ := newTestRuntime()
		var p *Computed[int]
		p = NewPureComputed(rt, func() int { return p.Value() + 1 })

		err := panicErr(t, func() { p.Peek() })
		assert.ErrorIs(t, err, ErrPureRecursion)
		assert.Nil(t, rt.Active())
	})
}
