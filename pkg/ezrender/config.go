package ezrender

import "fmt"

// Pool names, as used by ResizePool, Stats, logs and metrics.
const (
	PoolClear   = "clear"
	PoolPolygon = "polygon"
	PoolUniform = "uniform"
	PoolFrame   = "frame"
	PoolTask    = "task"
)

// PoolConfig holds the maximum number of idle commands each pool retains.
type PoolConfig struct {
	Clear   int
	Polygon int
	Uniform int
	Frame   int
	Task    int
}

// Config describes a Runtime.
type Config struct {

	// Width and Height size the canvas in pixels.
	Width  int
	Height int

	// Pools bounds every free-list.
	Pools PoolConfig

	// Prewarm is the number of idle commands built per pool at start-up, capped by
	// each pool's capacity.
	Prewarm int

	// InitiallyActive opens the gate at start-up. The gate starts Paused otherwise,
	// so nothing is drawn before the host surface reports it is visible.
	InitiallyActive bool

	// LockOSThread pins the rendering-context executor to one OS thread.
	LockOSThread bool

	// MetricsAddr, when set, is the listen address of the Prometheus endpoint
	// served by Run.
	MetricsAddr string
}

// DefaultConfig returns a 640x480 runtime with sixteen idle commands per pool.
func DefaultConfig() Config {
	return Config{
		Width:  640,
		Height: 480,
		Pools: PoolConfig{
			Clear:   16,
			Polygon: 16,
			Uniform: 16,
			Frame:   16,
			Task:    16,
		},
		LockOSThread: true,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Prewarm < 0 {
		return fmt.Errorf("%w: negative prewarm %d", ErrInvalidConfig, c.Prewarm)
	}
	for _, p := range c.Pools.ordered() {
		if p.capacity <= 0 {
			return fmt.Errorf("%w: pool %s capacity %d", ErrInvalidConfig, p.name, p.capacity)
		}
	}
	return nil
}

type namedCapacity struct {
	name     string
	capacity int
}

func (p PoolConfig) ordered() []namedCapacity {
	return []namedCapacity{
		{PoolClear, p.Clear},
		{PoolPolygon, p.Polygon},
		{PoolUniform, p.Uniform},
		{PoolFrame, p.Frame},
		{PoolTask, p.Task},
	}
}
