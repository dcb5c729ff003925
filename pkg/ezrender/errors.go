package ezrender

import "errors"

var (
	// ErrDestroyed is returned by producer calls made after Destroy.
	ErrDestroyed = errors.New("ezrender: runtime destroyed")

	// ErrInvalidConfig is wrapped by every Config validation failure.
	ErrInvalidConfig = errors.New("ezrender: invalid config")

	// ErrUnknownPool is returned by ResizePool for a name that is not one of the
	// runtime's pools.
	ErrUnknownPool = errors.New("ezrender: unknown pool")
)
