// Package ko is a fine grained reactive graph.
//
// Observables hold values. Computeds derive values from a read function and
// discover their inputs automatically: every Observable or Computed read while
// the function runs becomes a dependency, and a later change to any of them
// re-evaluates the Computed. A re-evaluation diffs the dependencies it read
// against the previous pass so a node is only ever notified by what it
// actually uses.
//
// Pure computeds sleep while nothing subscribes to them. A sleeping node holds
// no subscriptions; it remembers each dependency's version and re-evaluates
// lazily when read.
//
// Notification timing is pluggable through extenders. Deferred coalesces
// changes onto the runtime's task scheduler, RateLimit delays them with a
// timer, and Throttle delays evaluation or writes.
//
// All graph state belongs to a Runtime and must be used from one logical
// thread. Default returns a runtime bound to the calling goroutine.
//
//	rt := ko.New()
//	a := ko.NewObservable(rt, 1)
//	b := ko.NewComputed(rt, func() int { return a.Value() * 2 })
//	b.Subscribe(func(v int) { fmt.Println(v) })
//	a.Set(10) // prints 20
package ko
