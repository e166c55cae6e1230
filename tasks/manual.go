package tasks

import (
	"container/heap"
	"time"
)

// ManualHost runs nothing until told to. Microtasks run on Drain; timers fire
// on Advance against a virtual clock that starts at zero.
type ManualHost struct {
	now        time.Duration
	microtasks []func()
	timers     timerHeap
	seq        uint64
}

func NewManualHost() *ManualHost {
	return &ManualHost{}
}

func (h *ManualHost) QueueMicrotask(fn func()) {
	h.microtasks = append(h.microtasks, fn)
}

func (h *ManualHost) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	h.seq++
	t := &manualTimer{host: h, due: h.now + d, seq: h.seq, fn: fn}
	heap.Push(&h.timers, t)
	return t
}

// Now is the virtual time elapsed since the host was created.
func (h *ManualHost) Now() time.Duration { return h.now }

// PendingMicrotasks reports how many microtasks are waiting for Drain.
func (h *ManualHost) PendingMicrotasks() int { return len(h.microtasks) }

// PendingTimers reports how many timers have not fired or been stopped.
func (h *ManualHost) PendingTimers() int { return len(h.timers) }

// Drain runs microtasks until none are left, including ones queued while
// draining.
func (h *ManualHost) Drain() {
	for len(h.microtasks) > 0 {
		fn := h.microtasks[0]
		h.microtasks[0] = nil
		h.microtasks = h.microtasks[1:]
		fn()
	}
}

// Advance drains microtasks, then moves the clock forward by d, firing every
// timer that comes due in order and draining microtasks after each one.
func (h *ManualHost) Advance(d time.Duration) {
	h.Drain()
	target := h.now + d
	for len(h.timers) > 0 && h.timers[0].due <= target {
		t := heap.Pop(&h.timers).(*manualTimer)
		h.now = t.due
		t.fn()
		h.Drain()
	}
	h.now = target
}

type manualTimer struct {
	host  *ManualHost
	due   time.Duration
	seq   uint64
	fn    func()
	index int
}

func (t *manualTimer) Stop() bool {
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.host.timers, t.index)
	return true
}

type timerHeap []*manualTimer

func (th timerHeap) Len() int { return len(th) }

func (th timerHeap) Less(i, j int) bool {
	if th[i].due == th[j].due {
		return th[i].seq < th[j].seq
	}
	return th[i].due < th[j].due
}

func (th timerHeap) Swap(i, j int) {
	th[i], th[j] = th[j], th[i]
	th[i].index = i
	th[j].index = j
}

func (th *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*th)
	*th = append(*th, t)
}

func (th *timerHeap) Pop() any {
	old := *th
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*th = old[:n-1]
	return t
}
