package ko

import "fmt"

// Frame is one level of the dependency detection stack. Reads of a
// Dependency while a frame is on top are passed to its Callback.
type Frame struct {
	Callback func(dep Dependency, id uint64)

	// Computed is the node evaluating in this frame, if any.
	Computed Node

	// IsInitial is true on a node's first evaluation.
	IsInitial bool
}

// Node is a dependency that tracks dependencies of its own.
type Node interface {
	Dependency
	DependenciesCount() int
	Dependencies() []Dependency
}

// Begin pushes f. A nil frame suspends detection until the matching End.
func (rt *Runtime) Begin(f *Frame) {
	rt.assertOwner()
	rt.outer = append(rt.outer, rt.frame)
	rt.frame = f
}

// End pops the frame pushed by the last Begin.
func (rt *Runtime) End() {
	n := len(rt.outer) - 1
	rt.frame = rt.outer[n]
	rt.outer[n] = nil
	rt.outer = rt.outer[:n]
}

// Register reports a read of dep to the active frame. Ids are assigned on
// first registration and never change.
func (rt *Runtime) Register(dep Dependency) {
	f := rt.frame
	if f == nil {
		return
	}
	if dep == nil {
		panic(fmt.Errorf("register dependency: %w", ErrNotSubscribable))
	}

	s := dep.subscribable()
	if s.id == 0 {
		owner := s.runtime()
		owner.lastID++
		s.id = owner.lastID
	}
	if f.Callback != nil {
		f.Callback(dep, s.id)
	}
}

// Ignore runs fn with dependency detection suspended.
func (rt *Runtime) Ignore(fn func()) {
	rt.Begin(nil)
	defer rt.End()
	fn()
}

// IgnoreDependencies runs fn with dependency detection suspended and returns
// its result.
func IgnoreDependencies[T any](rt *Runtime, fn func() T) T {
	rt.Begin(nil)
	defer rt.End()
	return fn()
}

// DependencyCount is the number of dependencies the evaluating node has read
// so far, or 0 outside an evaluation.
func (rt *Runtime) DependencyCount() int {
	if rt.frame == nil || rt.frame.Computed == nil {
		return 0
	}
	return rt.frame.Computed.DependenciesCount()
}

// Dependencies lists what the evaluating node has read so far, in read order.
func (rt *Runtime) Dependencies() []Dependency {
	if rt.frame == nil || rt.frame.Computed == nil {
		return nil
	}
	return rt.frame.Computed.Dependencies()
}

func (rt *Runtime) IsInitial() bool {
	return rt.frame != nil && rt.frame.IsInitial
}

// Active returns the evaluating node, or nil.
func (rt *Runtime) Active() Node {
	if rt.frame == nil {
		return nil
	}
	return rt.frame.Computed
}
