package ko

import "errors"

var (
	ErrNoReadFunction  = errors.New("ko: computed requires a read function")
	ErrNotWritable     = errors.New("ko: computed has no write function")
	ErrNilCallback     = errors.New("ko: callback must not be nil")
	ErrNotSubscribable = errors.New("ko: only subscribables can be dependencies")

	// ErrPureRecursion is raised when a pure computed reads itself while
	// evaluating.
	ErrPureRecursion = errors.New("ko: a pure computed must not be called recursively")

	ErrInvalidRateLimit = errors.New("ko: rate limit timeout must not be negative")
)
