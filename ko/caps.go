package ko

type (
	observableNode interface {
		Dependency
		isObservable()
	}
	computedNode interface {
		Dependency
		isComputed()
	}
)

func IsSubscribable(v any) bool {
	_, ok := v.(Dependency)
	return ok
}

// IsObservable is true for observables, arrays and computeds.
func IsObservable(v any) bool {
	_, ok := v.(observableNode)
	return ok
}

func IsComputed(v any) bool {
	_, ok := v.(computedNode)
	return ok
}

func IsPureComputed(v any) bool {
	p, ok := v.(interface {
		computedNode
		IsPure() bool
	})
	return ok && p.IsPure()
}

// IsWritable is true for observables and computeds with a write function.
func IsWritable(v any) bool {
	w, ok := v.(interface {
		observableNode
		HasWriteFunction() bool
	})
	return ok && w.HasWriteFunction()
}

// Unwrap returns the value of a Source, registering the read, or v itself
// when it is a plain T.
func Unwrap[T any](v any) T {
	if s, ok := v.(Source[T]); ok {
		return s.Value()
	}
	t, _ := v.(T)
	return t
}
