package app

import "errors"

// Config carries the command-line configuration of one run. Zero values mean
// "not set"; the settings file and the built-in defaults fill them in.
type Config struct {
	SettingsPath string
	Root         string
	Extension    string
	Interval     float64

	LogFormat string
	LogLevel  string
	Watch     bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" && cfg.SettingsPath == "" {
		return nil, errors.New("a root directory or a settings file is required")
	}

	// Future validations for other fields can be added here.

	return &cfg, nil
}
