package tasks

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrTooMuchRecursion is matched by the error reported when a flush is
	// aborted because tasks kept queueing tasks.
	ErrTooMuchRecursion = errors.New("tasks: too much recursion")

	ErrNilTask            = errors.New("tasks: nil task")
	ErrLoopAlreadyRunning = errors.New("tasks: loop is already running")
	ErrLoopNotRunning     = errors.New("tasks: loop is not running")
	ErrWrongGoroutine     = errors.New("tasks: called off the loop goroutine")
)

// RecursionError is reported once per aborted flush.
type RecursionError struct {
	Groups int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("tasks: 'too much recursion' after processing %d task groups", e.Groups)
}

func (e *RecursionError) Unwrap() error { return ErrTooMuchRecursion }

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tasks: task panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
