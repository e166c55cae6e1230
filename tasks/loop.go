package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// Loop is a Host that owns one goroutine. Work submitted from any goroutine,
// and every timer callback, runs on the goroutine inside Run. Microtasks run
// after each unit of work.
type Loop struct {
	ingressMu sync.Mutex
	ingress   []func()
	wake      chan struct{}

	microtasks []func()

	loopGID atomic.Int64
	running atomic.Bool
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Run processes work until ctx is done. Only one Run may be active.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer l.running.Store(false)

	l.loopGID.Store(goid.Get())
	defer l.loopGID.Store(0)

	for {
		l.drainMicrotasks()

		batch := l.takeIngress()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}

		for _, fn := range batch {
			fn()
			l.drainMicrotasks()
		}
	}
}

// Submit queues fn to run on the loop goroutine. Safe from any goroutine.
func (l *Loop) Submit(fn func()) {
	l.ingressMu.Lock()
	l.ingress = append(l.ingress, fn)
	l.ingressMu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if !l.running.Load() {
		return ErrLoopNotRunning
	}
	if l.onLoop() {
		fn()
		return nil
	}

	done := make(chan struct{})
	l.Submit(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueMicrotask must be called on the loop goroutine once Run has started.
// Before that it queues work for the first iteration.
func (l *Loop) QueueMicrotask(fn func()) {
	if gid := l.loopGID.Load(); gid != 0 && gid != goid.Get() {
		panic(fmt.Errorf("queue microtask: %w", ErrWrongGoroutine))
	}
	l.microtasks = append(l.microtasks, fn)
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Submit(func() {
			if lt.done.Swap(true) {
				return
			}
			fn()
		})
	})
	return lt
}

func (l *Loop) onLoop() bool {
	return l.loopGID.Load() == goid.Get()
}

func (l *Loop) takeIngress() []func() {
	l.ingressMu.Lock()
	defer l.ingressMu.Unlock()

	batch := l.ingress
	l.ingress = nil
	return batch
}

func (l *Loop) drainMicrotasks() {
	for len(l.microtasks) > 0 {
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		fn()
	}
}

// loopTimer also covers the window where the runtime timer has fired but
// its callback is still waiting in the ingress queue.
type loopTimer struct {
	t    *time.Timer
	done atomic.Bool
}

func (lt *loopTimer) Stop() bool {
	lt.t.Stop()
	return !lt.done.Swap(true)
}
