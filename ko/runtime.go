package ko

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/delaneyj/kosignal/tasks"
	"github.com/petermattis/goid"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime owns the state shared by one reactive graph: the dependency
// detection stack, the id counter for dependencies and the task scheduler
// deferred notifications run on. Nodes only track nodes of their own runtime.
type Runtime struct {
	logger *slog.Logger
	host   tasks.Host
	tasks  *tasks.Scheduler

	deferUpdates bool
	metrics      *graphMetrics

	checkGoroutine bool
	owner          atomic.Int64

	frame  *Frame
	outer  []*Frame
	lastID uint64
}

type config struct {
	host           tasks.Host
	onError        func(error)
	logger         *slog.Logger
	deferUpdates   bool
	recursionLimit int
	registerer     prometheus.Registerer
	checkGoroutine bool
}

type Option func(*config)

// WithHost sets where scheduled flushes and timers run. The default is a
// tasks.ManualHost, which runs nothing until drained.
func WithHost(h tasks.Host) Option {
	return func(c *config) { c.host = h }
}

// WithErrorHandler receives errors from scheduled tasks. Without one, errors
// are re-panicked after the flush that produced them.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDeferUpdates makes every Observable and Computed created by the runtime
// deferred.
func WithDeferUpdates() Option {
	return func(c *config) { c.deferUpdates = true }
}

func WithRecursionLimit(n int) Option {
	return func(c *config) { c.recursionLimit = n }
}

// WithMetrics registers scheduler and graph counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// WithGoroutineCheck panics when the runtime is used from a goroutine other
// than the first one that used it.
func WithGoroutineCheck() Option {
	return func(c *config) { c.checkGoroutine = true }
}

const metricsNamespace = "kosignal"

func New(opts ...Option) *Runtime {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.host == nil {
		cfg.host = tasks.NewManualHost()
	}

	rt := &Runtime{
		logger:         cfg.logger,
		host:           cfg.host,
		deferUpdates:   cfg.deferUpdates,
		checkGoroutine: cfg.checkGoroutine,
	}

	var taskMetrics *tasks.Metrics
	if cfg.registerer != nil {
		taskMetrics = tasks.NewMetrics(cfg.registerer, metricsNamespace)
		rt.metrics = newGraphMetrics(cfg.registerer, metricsNamespace)
	}
	rt.tasks = tasks.New(cfg.host, tasks.Options{
		OnError:        cfg.onError,
		RecursionLimit: cfg.recursionLimit,
		Logger:         cfg.logger,
		Metrics:        taskMetrics,
	})
	return rt
}

var defaults sync.Map

// Default returns the runtime of the calling goroutine, creating it with
// default options on first use.
func Default() *Runtime {
	gid := goid.Get()
	if rt, ok := defaults.Load(gid); ok {
		return rt.(*Runtime)
	}
	rt := New()
	defaults.Store(gid, rt)
	return rt
}

// ReleaseDefault forgets the calling goroutine's default runtime.
func ReleaseDefault() {
	defaults.Delete(goid.Get())
}

func (rt *Runtime) Host() tasks.Host { return rt.host }
func (rt *Runtime) Tasks() *tasks.Scheduler { return rt.tasks }
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }
func (rt *Runtime) DeferUpdates() bool { return rt.deferUpdates }
func (rt *Runtime) Schedule(fn func()) tasks.Handle { return rt.tasks.Schedule(fn) }
func (rt *Runtime) Cancel(h tasks.Handle) { rt.tasks.Cancel(h) }

func (rt *Runtime) assertOwner() {
	if !rt.checkGoroutine {
		return
	}
	gid := goid.Get()
	if rt.owner.CompareAndSwap(0, gid) {
		return
	}
	if owner := rt.owner.Load(); owner != gid {
		panic(fmt.Errorf("ko: runtime owned by goroutine %d used from %d: %w", owner, gid, tasks.ErrWrongGoroutine))
	}
}
