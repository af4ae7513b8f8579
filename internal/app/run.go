package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/reloadgo/internal/ctxlog"
	"github.com/vk/reloadgo/internal/fsutil"
	"github.com/vk/reloadgo/internal/watcher"
)

// Run loads every unit under the configured root and, in watch mode, keeps
// polling their source files until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	files, err := fsutil.FindFilesByExtension(a.settings.Root, a.settings.Extension)
	if err != nil {
		return fmt.Errorf("failed to discover units: %w", err)
	}

	loaded := 0
	for _, path := range files {
		name, ok := fsutil.UnitName(a.settings.Root, path, a.settings.Extension)
		if !ok {
			continue
		}
		if err := a.manager.LoadModule(ctx, name, ""); err != nil {
			a.logger.Warn("Unit failed to load.", "unit", name, "error", err)
			continue
		}
		loaded++
	}
	a.logger.Info("Unit tree loaded.", "units", loaded, "tracked", len(a.manager.Modules()))

	if !a.settings.Watch {
		a.logger.Debug("App.Run method finished.")
		return nil
	}

	interval := time.Duration(a.settings.Interval * float64(time.Second))
	if err := watcher.New(a.manager, interval).Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("Watch stopped.")
	return nil
}
