package lifecycle

import "errors"

// ErrWorkerShutdown is returned by Post once Shutdown has been called.
var ErrWorkerShutdown = errors.New("lifecycle: worker has been shut down")

// ErrNilWorkItem is returned by Post when given a nil item.
var ErrNilWorkItem = errors.New("lifecycle: nil work item")
