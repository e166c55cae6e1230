package ko

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/kosignal/tasks"
)

func newTestRuntime(opts ...Option) (*Runtime, *tasks.ManualHost) {
	host := tasks.NewManualHost()
	opts = append([]Option{
		WithHost(host),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return New(opts...), host
}

// panicErr runs fn and returns the error it panicked with.
func panicErr(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		e, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		err = e
	}()
	fn()
	return nil
}

func TestRuntime(t *testing.T) {
	t.Run("default runtime is per goroutine", func(t *testing.T) {
		defer ReleaseDefault()

		rt := Default()
		assert.Same(t, rt, Default())

		other := make(chan *Runtime)
		go func() {
			defer ReleaseDefault()
			other <- Default()
		}()
		assert.NotSame(t, rt, <-other)

		ReleaseDefault()
		assert.NotSame(t, rt, Default())
	})

	t.Run("nil runtime falls back to the default", func(t *testing.T) {
		defer ReleaseDefault()

		a := NewObservable[int](nil, 1)
		assert.Same(t, Default(), a.Runtime())
	})

	t.Run("scheduled errors go to the handler", func(t *testing.T) {
		var reported []error
		rt, host := newTestRuntime(WithErrorHandler(func(err error) { reported = append(reported, err) }))

		rt.Schedule(func() { panic(errors.New("boom")) })
		ran := false
		rt.Schedule(func() { ran = true })
		host.Drain()

		require.Len(t, reported, 1)
		assert.EqualError(t, errors.Unwrap(reported[0]), "boom")
		assert.True(t, ran)
	})

	t.Run("recursion limit is configurable", func(t *testing.T) {
		var reported []error
		rt, host := newTestRuntime(
			WithRecursionLimit(3),
			WithErrorHandler(func(err error) { reported = append(reported, err) }),
		)

		var again func()
		again = func() { rt.Schedule(again) }
		rt.Schedule(again)
		host.Drain()

		require.Len(t, reported, 1)
		assert.ErrorIs(t, reported[0], tasks.ErrTooMuchRecursion)
	})

	t.Run("cancel", func(t *testing.T) {
		rt, host := newTestRuntime()
		ran := false
		h := rt.Schedule(func() { ran = true })
		rt.Cancel(h)
		host.Drain()
		assert.False(t, ran)
	})

	t.Run("goroutine check", func(t *testing.T) {
		rt, _ := newTestRuntime(WithGoroutineCheck())
		a := NewObservable(rt, 1)
		NewComputed(rt, a.Value)

		errs := make(chan error)
		go func() {
			defer func() {
				err, _ := recover().(error)
				errs <- err
			}()
			a.Set(2)
		}()
		assert.ErrorIs(t, <-errs, tasks.ErrWrongGoroutine)
	})
}

func TestRuntimeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rt, host := newTestRuntime(WithMetrics(reg))

	a := NewObservable(rt, 1)
	NewComputed(rt, func() int { return a.Value() * 2 })
	a.Set(2)
	NewComputed(rt, func() int { return 7 })

	assert.Equal(t, 3.0, testutil.ToFloat64(rt.metrics.evaluations))
	assert.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.disposals))

	rt.Schedule(func() {})
	host.Drain()

	count, err := testutil.GatherAndCount(reg, "kosignal_tasks_scheduled_total", "kosignal_graph_evaluations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
