// Package tasks batches deferred work into ticks.
//
// A Scheduler keeps a FIFO queue of closures and asks its Host to run a single
// flush the first time a task lands in an empty queue. Tasks queued while a
// flush is running join the same flush. A recursion guard aborts the flush
// when tasks keep queueing more tasks for too many passes.
//
// Two hosts are provided. ManualHost is driven explicitly (Drain, Advance) and
// keeps a virtual clock, which makes timing deterministic in tests. Loop is a
// single goroutine event loop that serializes submitted work, timers and
// microtasks.
package tasks
