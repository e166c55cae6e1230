package ko

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhen(t *testing.T) {
	t.Run("fires once when the predicate turns true", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 0)
		fired := 0
		When(rt, func() bool { return a.Value() > 2 }, func() { fired++ })
		assert.Equal(t, 1, a.SubscriptionsCount(EventChange))

		a.Set(1)
		assert.Equal(t, 0, fired)

		a.Set(3)
		assert.Equal(t, 1, fired)
		assert.Equal(t, 0, a.SubscriptionsCount(EventChange))

		a.Set(4)
		assert.Equal(t, 1, fired)
	})

	t.Run("already true fires right away", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 5)
		fired := 0
		sub := When(rt, func() bool { return a.Value() > 2 }, func() { fired++ })

		assert.Equal(t, 1, fired)
		assert.True(t, sub.IsDisposed())
		assert.Equal(t, 0, a.SubscriptionsCount(""))
	})

	t.Run("disposing cancels the wait", func(t *testing.T) {
		rt, _ := newTestRuntime()
		a := NewObservable(rt, 0)
		fired := 0
		sub := When(rt, func() bool { return a.Value() > 0 }, func() { fired++ })

		sub.Dispose()
		a.Set(1)
		assert.Equal(t, 0, fired)
	})
}
