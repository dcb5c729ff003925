package executor

import "errors"

var (
	// ErrExecutorClosed is returned for work submitted to, or aborted by, a closed executor.
	ErrExecutorClosed = errors.New("executor: closed")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("executor: nil task")

	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("executor: task panicked")
)
