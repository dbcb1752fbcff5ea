package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// RecoverFromPanic wraps handler execution in panic recovery.
	// A recovered panic is reported as ErrHandlerPanic.
	RecoverFromPanic bool

	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// MaxSuggestions limits the usage strings attached to mismatch errors.
	// Zero disables suggestions.
	MaxSuggestions int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RecoverFromPanic: true,
		EnableMetrics:    false,
		MaxSuggestions:   3,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithMaxSuggestions returns a copy of the config with the suggestion limit set.
func (c Config) WithMaxSuggestions(n int) Config {
	if n < 0 {
		n = 0
	}
	c.MaxSuggestions = n
	return c
}
