package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/cmdtree/internal/config/loader"
	"github.com/dshills/cmdtree/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CMDTREE_"

// Config holds every cmdtree setting.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Script   ScriptConfig   `mapstructure:"script"`

	unused []string
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// DispatchConfig configures the dispatcher.
type DispatchConfig struct {
	RecoverPanics  bool `mapstructure:"recoverPanics"`
	Metrics        bool `mapstructure:"metrics"`
	MaxSuggestions int  `mapstructure:"maxSuggestions"`
}

// ScriptConfig configures Lua command trees.
type ScriptConfig struct {
	// Path is the tree script. Empty selects the built-in tree.
	Path string `mapstructure:"path"`
	// Watch reloads the script when it changes.
	Watch bool `mapstructure:"watch"`
	// Timeout bounds each Lua handler call. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
	// Debounce coalesces bursts of file events.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Dispatch: DispatchConfig{
			RecoverPanics:  true,
			Metrics:        false,
			MaxSuggestions: 3,
		},
		Script: ScriptConfig{
			Timeout:  5 * time.Second,
			Debounce: 200 * time.Millisecond,
		},
	}
}

// defaultMap is Default as a settings map, the lowest layer.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"logging": map[string]any{
			"level":  d.Logging.Level,
			"format": d.Logging.Format,
		},
		"dispatch": map[string]any{
			"recoverPanics":  d.Dispatch.RecoverPanics,
			"metrics":        d.Dispatch.Metrics,
			"maxSuggestions": d.Dispatch.MaxSuggestions,
		},
		"script": map[string]any{
			"path":     d.Script.Path,
			"watch":    d.Script.Watch,
			"timeout":  d.Script.Timeout,
			"debounce": d.Script.Debounce,
		},
	}
}

// Options selects the layers Load reads.
type Options struct {
	// Path is a TOML or YAML file. Empty skips the file layer.
	Path string

	// FS reads Path. Defaults to the OS file system.
	FS loader.FileSystem

	// Env overrides the environment loader. Nil uses EnvPrefix over the
	// process environment.
	Env loader.Loader

	// SkipEnv disables the environment layer.
	SkipEnv bool

	// Overrides are dotted paths set last, typically from flags.
	Overrides map[string]any
}

// Load merges the layers and decodes them into a validated Config.
func Load(opts Options) (*Config, error) {
	merged := defaultMap()

	if opts.Path != "" {
		fileLayer, err := loadFile(opts.FS, opts.Path)
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, fileLayer)
	}

	if !opts.SkipEnv {
		env := opts.Env
		if env == nil {
			env = loader.NewEnvLoader(EnvPrefix)
		}
		envLayer, err := env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, envLayer)
	}

	if len(opts.Overrides) > 0 {
		flagLayer := make(map[string]any)
		for path, val := range opts.Overrides {
			loader.SetPath(flagLayer, path, val)
		}
		merged = loader.DeepMerge(merged, flagLayer)
	}

	cfg, err := Decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(fsys loader.FileSystem, path string) (map[string]any, error) {
	if fsys == nil {
		fsys = loader.DefaultFS()
	}
	l, err := loader.ForPath(fsys, path)
	if err != nil {
		return nil, err
	}
	data, err := l.Load()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return data, nil
}

// Decode converts a settings map into a Config. Keys that match no field
// are reported by Unused rather than failing.
func Decode(data map[string]any) (*Config, error) {
	cfg := &Config{}
	var md mapstructure.Metadata

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		Metadata:         &md,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.unused = md.Unused
	sort.Strings(cfg.unused)
	return cfg, nil
}

// Unused returns the keys that matched no setting, sorted.
func (c *Config) Unused() []string {
	out := make([]string, len(c.unused))
	copy(out, c.unused)
	return out
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return &ValidationError{Path: "logging.level", Message: "unknown level", Value: c.Logging.Level}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Path: "logging.format", Message: "must be text or json", Value: c.Logging.Format}
	}
	if c.Dispatch.MaxSuggestions < 0 {
		return &ValidationError{Path: "dispatch.maxSuggestions", Message: "must not be negative", Value: c.Dispatch.MaxSuggestions}
	}
	if c.Script.Timeout < 0 {
		return &ValidationError{Path: "script.timeout", Message: "must not be negative", Value: c.Script.Timeout}
	}
	if c.Script.Debounce < 0 {
		return &ValidationError{Path: "script.debounce", Message: "must not be negative", Value: c.Script.Debounce}
	}
	if c.Script.Watch && c.Script.Path == "" {
		return &ValidationError{Path: "script.watch", Message: "requires script.path", Value: c.Script.Watch}
	}
	return nil
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}
