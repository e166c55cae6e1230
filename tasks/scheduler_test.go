package tasks

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(opts Options) (*Scheduler, *ManualHost) {
	host := NewManualHost()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return New(host, opts), host
}

func TestScheduler(t *testing.T) {
	t.Run("runs tasks in enqueue order on one flush", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		log := []string{}

		s.Schedule(func() { log = append(log, "a") })
		s.Schedule(func() { log = append(log, "b") })
		s.Schedule(func() { log = append(log, "c") })

		assert.Empty(t, log)
		assert.Equal(t, 1, host.PendingMicrotasks())

		host.Drain()
		assert.Equal(t, []string{"a", "b", "c"}, log)
		assert.Equal(t, 0, s.Pending())
	})

	t.Run("tasks queued during a flush join it", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		log := []string{}

		s.Schedule(func() {
			log = append(log, "outer")
			s.Schedule(func() { log = append(log, "inner") })
		})
		s.Schedule(func() { log = append(log, "second") })

		host.Drain()
		assert.Equal(t, []string{"outer", "second", "inner"}, log)
		assert.Equal(t, 0, host.PendingMicrotasks())
	})

	t.Run("handles increase monotonically", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		h1 := s.Schedule(func() {})
		h2 := s.Schedule(func() {})
		host.Drain()
		h3 := s.Schedule(func() {})

		assert.Less(t, h1, h2)
		assert.Less(t, h2, h3)
	})

	t.Run("cancel before start replaces the task", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		ran := []int{}

		s.Schedule(func() { ran = append(ran, 1) })
		h := s.Schedule(func() { ran = append(ran, 2) })
		s.Schedule(func() { ran = append(ran, 3) })
		s.Cancel(h)

		host.Drain()
		assert.Equal(t, []int{1, 3}, ran)
	})

	t.Run("cancel after start has no effect", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		ran := 0

		var h Handle
		h = s.Schedule(func() {
			s.Cancel(h)
			ran++
		})
		host.Drain()
		assert.Equal(t, 1, ran)

		// handle from a finished batch
		s.Cancel(h)
		s.Schedule(func() { ran++ })
		host.Drain()
		assert.Equal(t, 2, ran)
	})

	t.Run("panicking task does not stop the flush", func(t *testing.T) {
		var reported []error
		s, host := newTestScheduler(Options{OnError: func(err error) { reported = append(reported, err) }})
		ran := []string{}

		s.Schedule(func() { ran = append(ran, "first") })
		s.Schedule(func() { panic(errors.New("boom")) })
		s.Schedule(func() { ran = append(ran, "third") })

		host.Drain()
		assert.Equal(t, []string{"first", "third"}, ran)
		require.Len(t, reported, 1)

		var pe *PanicError
		require.ErrorAs(t, reported[0], &pe)
		assert.EqualError(t, errors.Unwrap(pe), "boom")
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("without a hook errors are re-panicked after the flush", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		ran := 0

		s.Schedule(func() { panic("first") })
		s.Schedule(func() { ran++ })

		assert.Panics(t, host.Drain)
		assert.Equal(t, 1, ran)
		assert.Equal(t, 0, s.Pending())
	})

	t.Run("recursion guard aborts and reports once", func(t *testing.T) {
		var reported []error
		s, host := newTestScheduler(Options{
			RecursionLimit: 10,
			OnError:        func(err error) { reported = append(reported, err) },
		})

		runs := 0
		var recurse func()
		recurse = func() {
			runs++
			s.Schedule(recurse)
		}
		s.Schedule(recurse)

		host.Drain()
		require.Len(t, reported, 1)
		assert.ErrorIs(t, reported[0], ErrTooMuchRecursion)

		var re *RecursionError
		require.ErrorAs(t, reported[0], &re)
		assert.Equal(t, 10, re.Groups)
		assert.Equal(t, 10, runs)

		// the queue was discarded and the next batch starts fresh
		assert.Equal(t, 0, s.Pending())
		s.Schedule(func() { runs++ })
		host.Drain()
		assert.Equal(t, 11, runs)
		assert.Len(t, reported, 1)
	})

	t.Run("run early processes the queue synchronously", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		ran := 0
		s.Schedule(func() { ran++ })
		s.Schedule(func() { ran++ })

		s.RunEarly()
		assert.Equal(t, 2, ran)

		host.Drain()
		assert.Equal(t, 2, ran)
	})

	t.Run("reset for testing drops queued tasks", func(t *testing.T) {
		s, host := newTestScheduler(Options{})
		ran := 0
		s.Schedule(func() { ran++ })
		s.Schedule(func() { ran++ })

		assert.Equal(t, 2, s.ResetForTesting())
		host.Drain()
		assert.Equal(t, 0, ran)
	})

	t.Run("nil task panics", func(t *testing.T) {
		s, _ := newTestScheduler(Options{})
		assert.PanicsWithValue(t, ErrNilTask, func() { s.Schedule(nil) })
	})
}

func TestSchedulerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")
	s, host := newTestScheduler(Options{Metrics: m, OnError: func(error) {}})

	s.Schedule(func() {})
	s.Schedule(func() { panic("x") })
	host.Drain()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Scheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Run))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Flushes))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RecursionAborts))
}
