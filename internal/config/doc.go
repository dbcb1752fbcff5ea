// Package config loads cmdtree settings.
//
// Settings come from four layers, each overriding the one before it:
// built-in defaults, an optional TOML or YAML file, CMDTREE_ environment
// variables and command-line overrides. Layers are nested maps merged with
// loader.DeepMerge and decoded into Config with mapstructure, weakly typed
// so that "5" from the environment fills an int field.
//
//	cfg, err := config.Load(config.Options{
//	    Path:      "cmdtree.toml",
//	    Overrides: map[string]any{"logging.level": "debug"},
//	})
//
// A file looks like:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[dispatch]
//	recoverPanics = true
//	metrics = false
//	maxSuggestions = 3
//
//	[script]
//	path = "tree.lua"
//	watch = false
//	timeout = "5s"
//	debounce = "200ms"
package config
