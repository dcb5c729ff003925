package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrNoConfigFile is returned by Watch when the loader has no file to watch.
var ErrNoConfigFile = errors.New("config: no config file to watch")

// Loader handles configuration loading
type Loader struct {
	configPath string
	v          *viper.Viper
	mu         *sync.Mutex
	hasFile    bool
}

// NewLoader creates a new config loader. An empty path loads defaults and
// environment overrides only.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		mu:         &sync.Mutex{},
	}
}

// Load loads the configuration from file and EZRENDER_ environment variables,
// e.g. EZRENDER_CANVAS_WIDTH or EZRENDER_POOLS_CLEAR_CAPACITY. A missing file is
// not an error. The result is validated.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("EZRENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l.hasFile = false
	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err == nil {
			v.SetConfigFile(l.configPath)
			if filepath.Ext(l.configPath) == "" {
				v.SetConfigType("json")
			}
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			l.hasFile = true
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	l.v = v
	return decode(v)
}

// Watch calls onChange with the re-read configuration each time the config file
// changes. Updates that fail to decode or validate are passed to onError and
// otherwise ignored. Load must have succeeded with an existing file.
func (l *Loader) Watch(onChange func(cfg *Config, event fsnotify.Event), onError func(err error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.v == nil || !l.hasFile {
		return ErrNoConfigFile
	}

	v := l.v
	v.OnConfigChange(func(event fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg, event)
	})
	v.WatchConfig()

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables can override keys
// the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("canvas.width", cfg.Canvas.Width)
	v.SetDefault("canvas.height", cfg.Canvas.Height)
	v.SetDefault("pools.clear.capacity", cfg.Pools.Clear.Capacity)
	v.SetDefault("pools.polygon.capacity", cfg.Pools.Polygon.Capacity)
	v.SetDefault("pools.uniform.capacity", cfg.Pools.Uniform.Capacity)
	v.SetDefault("pools.frame.capacity", cfg.Pools.Frame.Capacity)
	v.SetDefault("pools.task.capacity", cfg.Pools.Task.Capacity)
	v.SetDefault("pools.prewarm", cfg.Pools.Prewarm)
	v.SetDefault("worker.initially_active", cfg.Worker.InitiallyActive)
	v.SetDefault("executor.lock_os_thread", cfg.Executor.LockOSThread)
	v.SetDefault("frames.rate", cfg.Frames.Rate)
	v.SetDefault("frames.count", cfg.Frames.Count)
	v.SetDefault("frames.producers", cfg.Frames.Producers)
	v.SetDefault("frames.idle_when_hidden", cfg.Frames.IdleWhenHidden)
	v.SetDefault("surface.toggle_every", cfg.Surface.ToggleEvery)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("output", cfg.Output)
}
