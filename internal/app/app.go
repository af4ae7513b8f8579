package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/reloadgo/internal/config"
	"github.com/vk/reloadgo/internal/ctxlog"
	"github.com/vk/reloadgo/internal/manager"
	"github.com/vk/reloadgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	settings *config.Settings
	host     *registry.InMemory
	manager  *manager.Manager
}

// NewApp is the constructor for the main application. It loads the settings
// file through the given loader, applies command-line overrides, and wires
// the host registry to the reload manager.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	settings, err := loader.Load(ctx, appConfig.SettingsPath)
	if err != nil {
		// A failure to load settings is a fatal startup error.
		panic(fmt.Errorf("failed to load settings: %w", err))
	}
	applyOverrides(settings, appConfig)

	// The settings file may carry a log level or format of its own.
	logger = newLogger(settings.LogLevel, settings.LogFormat, outW)
	logger.Debug("Settings resolved.", "root", settings.Root, "extension", settings.Extension)

	host := registry.NewInMemory()
	return &App{
		outW:     outW,
		logger:   logger,
		settings: settings,
		host:     host,
		manager:  manager.New(host, settings.Root, settings.Extension),
	}
}

// Manager returns the application's reload manager. This is primarily for
// testing.
func (a *App) Manager() *manager.Manager {
	return a.manager
}

// applyOverrides layers the command-line values over the file settings.
func applyOverrides(settings *config.Settings, cfg *Config) {
	if cfg.Root != "" {
		settings.Root = cfg.Root
	}
	if cfg.Extension != "" {
		settings.Extension = cfg.Extension
	}
	if cfg.Interval > 0 {
		settings.Interval = cfg.Interval
	}
	if cfg.LogFormat != "" {
		settings.LogFormat = cfg.LogFormat
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = cfg.LogLevel
	}
	if cfg.Watch {
		settings.Watch = true
	}
}
