package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvanniekerk/ezrender/pkg/ezrender"
	"github.com/rs/zerolog"
)

// Config represents the ezrender session configuration
type Config struct {
	// Canvas size
	Canvas CanvasConfig `json:"canvas" mapstructure:"canvas"`

	// Command pools
	Pools PoolsConfig `json:"pools" mapstructure:"pools"`

	// Gated worker
	Worker WorkerConfig `json:"worker" mapstructure:"worker"`

	// Rendering-context executor
	Executor ExecutorConfig `json:"executor" mapstructure:"executor"`

	// Frame production
	Frames FramesConfig `json:"frames" mapstructure:"frames"`

	// Simulated host surface
	Surface SurfaceConfig `json:"surface" mapstructure:"surface"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Output PNG path
	Output string `json:"output" mapstructure:"output"`
}

// CanvasConfig holds the canvas size in pixels
type CanvasConfig struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// PoolConfig holds the settings of one command pool
type PoolConfig struct {
	Capacity int `json:"capacity" mapstructure:"capacity"`
}

// PoolsConfig holds the settings of every command pool
type PoolsConfig struct {
	Clear   PoolConfig `json:"clear" mapstructure:"clear"`
	Polygon PoolConfig `json:"polygon" mapstructure:"polygon"`
	Uniform PoolConfig `json:"uniform" mapstructure:"uniform"`
	Frame   PoolConfig `json:"frame" mapstructure:"frame"`
	Task    PoolConfig `json:"task" mapstructure:"task"`
	Prewarm int        `json:"prewarm" mapstructure:"prewarm"`
}

// WorkerConfig holds gated worker settings
type WorkerConfig struct {
	InitiallyActive bool `json:"initially_active" mapstructure:"initially_active"`
}

// ExecutorConfig holds executor settings
type ExecutorConfig struct {
	LockOSThread bool `json:"lock_os_thread" mapstructure:"lock_os_thread"`
}

// FramesConfig holds frame production settings
type FramesConfig struct {
	Rate      float64 `json:"rate" mapstructure:"rate"` // frames per second, per producer
	Count     int     `json:"count" mapstructure:"count"`
	Producers int     `json:"producers" mapstructure:"producers"`

	// IdleWhenHidden makes producers wait for the surface instead of posting
	// frames that would be discarded.
	IdleWhenHidden bool `json:"idle_when_hidden" mapstructure:"idle_when_hidden"`
}

// SurfaceConfig controls the simulated host surface
type SurfaceConfig struct {
	ToggleEvery time.Duration `json:"toggle_every" mapstructure:"toggle_every"` // 0 keeps the surface visible
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:  640,
			Height: 480,
		},
		Pools: PoolsConfig{
			Clear:   PoolConfig{Capacity: 16},
			Polygon: PoolConfig{Capacity: 64},
			Uniform: PoolConfig{Capacity: 16},
			Frame:   PoolConfig{Capacity: 8},
			Task:    PoolConfig{Capacity: 8},
		},
		Executor: ExecutorConfig{
			LockOSThread: true,
		},
		Frames: FramesConfig{
			Rate:      60,
			Count:     120,
			Producers: 2,
		},
		Surface: SurfaceConfig{
			ToggleEvery: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Output: "ezrender.png",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Runtime().Validate(); err != nil {
		return err
	}

	if c.Frames.Rate <= 0 {
		return fmt.Errorf("frames.rate must be positive, got %v", c.Frames.Rate)
	}
	if c.Frames.Count < 0 {
		return fmt.Errorf("frames.count must not be negative, got %d", c.Frames.Count)
	}
	if c.Frames.Producers <= 0 {
		return fmt.Errorf("frames.producers must be positive, got %d", c.Frames.Producers)
	}
	if c.Surface.ToggleEvery < 0 {
		return fmt.Errorf("surface.toggle_every must not be negative, got %s", c.Surface.ToggleEvery)
	}
	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
		}
	}
	return nil
}

// Runtime maps the config onto a runtime configuration.
func (c *Config) Runtime() ezrender.Config {
	return ezrender.Config{
		Width:  c.Canvas.Width,
		Height: c.Canvas.Height,
		Pools: ezrender.PoolConfig{
			Clear:   c.Pools.Clear.Capacity,
			Polygon: c.Pools.Polygon.Capacity,
			Uniform: c.Pools.Uniform.Capacity,
			Frame:   c.Pools.Frame.Capacity,
			Task:    c.Pools.Task.Capacity,
		},
		Prewarm:         c.Pools.Prewarm,
		InitiallyActive: c.Worker.InitiallyActive,
		LockOSThread:    c.Executor.LockOSThread,
		MetricsAddr:     c.Metrics.Addr,
	}
}

// PoolCapacities returns the capacity of every pool keyed by runtime pool name.
func (c *Config) PoolCapacities() map[string]int {
	return map[string]int{
		ezrender.PoolClear:   c.Pools.Clear.Capacity,
		ezrender.PoolPolygon: c.Pools.Polygon.Capacity,
		ezrender.PoolUniform: c.Pools.Uniform.Capacity,
		ezrender.PoolFrame:   c.Pools.Frame.Capacity,
		ezrender.PoolTask:    c.Pools.Task.Capacity,
	}
}
