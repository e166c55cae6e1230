package tasks

import (
	"errors"
	"log/slog"
)

// DefaultRecursionLimit is the number of same-flush task groups after which a
// flush is aborted.
const DefaultRecursionLimit = 5000

// Handle identifies a scheduled task for Cancel. Handles increase
// monotonically for the lifetime of a Scheduler.
type Handle uint64

type Options struct {
	// OnError receives task panics and recursion aborts. When nil, errors
	// collected during a flush are re-panicked once the flush has run every
	// task.
	OnError func(error)

	// RecursionLimit defaults to DefaultRecursionLimit.
	RecursionLimit int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	Metrics *Metrics
}

type Scheduler struct {
	host    Host
	onError func(error)
	limit   int
	logger  *slog.Logger
	metrics *Metrics

	queue      []func()
	next       int
	nextHandle Handle

	unhandled []error
}

func New(host Host, opts Options) *Scheduler {
	if opts.RecursionLimit <= 0 {
		opts.RecursionLimit = DefaultRecursionLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{
		host:       host,
		onError:    opts.OnError,
		limit:      opts.RecursionLimit,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		nextHandle: 1,
	}
}

// Host returns the host flushes are queued on.
func (s *Scheduler) Host() Host { return s.host }

// Schedule appends task to the queue. The first task of a batch arranges one
// flush on the host.
func (s *Scheduler) Schedule(task func()) Handle {
	if task == nil {
		panic(ErrNilTask)
	}
	if len(s.queue) == 0 {
		s.host.QueueMicrotask(s.flush)
	}
	s.queue = append(s.queue, task)
	h := s.nextHandle
	s.nextHandle++
	s.metrics.scheduled()
	return h
}

// Cancel replaces a task that has not started yet with a no-op. Cancelling a
// task that already ran, is running, or belongs to an earlier batch does
// nothing.
func (s *Scheduler) Cancel(h Handle) {
	index := int64(h) - (int64(s.nextHandle) - int64(len(s.queue)))
	if index >= int64(s.next) && index < int64(len(s.queue)) {
		s.queue[index] = nil
	}
}

// RunEarly processes every queued task now instead of waiting for the flush.
func (s *Scheduler) RunEarly() {
	s.process()
}

// Pending reports how many queued tasks have not started.
func (s *Scheduler) Pending() int {
	return len(s.queue) - s.next
}

// ResetForTesting drops the queue and returns how many tasks were discarded.
func (s *Scheduler) ResetForTesting() int {
	n := s.Pending()
	s.reset()
	return n
}

func (s *Scheduler) flush() {
	s.process()
	s.reset()
	s.metrics.flushed()

	if len(s.unhandled) > 0 {
		errs := s.unhandled
		s.unhandled = nil
		panic(errors.Join(errs...))
	}
}

func (s *Scheduler) reset() {
	clear(s.queue)
	s.queue = s.queue[:0]
	s.next = 0
}

func (s *Scheduler) process() {
	if len(s.queue) == 0 {
		return
	}

	// a mark is the queue length at the start of a pass; crossing it means
	// the tasks we ran queued more tasks
	mark, marks := len(s.queue), 0
	for s.next < len(s.queue) {
		task := s.queue[s.next]
		s.next++
		if task == nil {
			continue
		}

		if s.next > mark {
			marks++
			if marks >= s.limit {
				s.next = len(s.queue)
				s.metrics.recursionAborted()
				s.report(&RecursionError{Groups: marks})
				break
			}
			mark = len(s.queue)
		}

		s.run(task)
	}
}

func (s *Scheduler) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.failed()
			s.report(newPanicError(r))
		}
	}()
	task()
	s.metrics.ran()
}

func (s *Scheduler) report(err error) {
	s.logger.Error("scheduled task failed", "error", err)
	if s.onError != nil {
		s.onError(err)
		return
	}
	s.unhandled = append(s.unhandled, err)
}
