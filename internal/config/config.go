// Package config defines the format-agnostic runtime settings model. Concrete
// file formats implement Loader and translate into this model.
package config

import "context"

// Settings holds everything the runtime needs to track a unit tree.
type Settings struct {
	// Root is the directory the tracked unit tree lives under.
	Root string
	// Extension is the suffix of unit source files, including the dot.
	Extension string
	// Interval is the watch poll period in seconds.
	Interval float64
	// LogFormat selects "text" or "json" log output.
	LogFormat string
	// LogLevel selects "debug", "info", "warn" or "error".
	LogLevel string
	// Watch keeps the process running and reloads units when their source
	// files change.
	Watch bool
}

// Default returns the settings used when neither a file nor a flag overrides
// them.
func Default() Settings {
	return Settings{
		Root:      ".",
		Extension: ".unit",
		Interval:  1.0,
		LogFormat: "text",
		LogLevel:  "info",
	}
}

// Loader reads a settings file into the model.
type Loader interface {
	Load(ctx context.Context, path string) (*Settings, error)
}
