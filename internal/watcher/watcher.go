// Package watcher polls the backing source files of tracked units and
// triggers a reload when one changes on disk.
package watcher

import (
	"context"
	"os"
	"time"

	"github.com/vk/reloadgo/internal/ctxlog"
	"github.com/vk/reloadgo/internal/manager"
)

// Watcher drives reloads from file modification times. It keeps one recorded
// mtime per backing path; a unit's first sighting only records, so units
// loaded before the watcher starts do not reload spuriously.
type Watcher struct {
	manager  *manager.Manager
	interval time.Duration
	seen     map[string]time.Time
}

// defaultInterval is used when the configured interval is not positive; the
// ticker cannot run on a zero or negative period.
const defaultInterval = time.Second

// New creates a Watcher polling at the given interval. A non-positive
// interval falls back to defaultInterval.
func New(m *manager.Manager, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Watcher{
		manager:  m,
		interval: interval,
		seen:     make(map[string]time.Time),
	}
}

// Run polls until ctx is cancelled. It always returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Watching for source changes.", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll checks every tracked unit's backing file once. A reload failure is
// logged and does not stop the watch; the next change retriggers it.
func (w *Watcher) poll(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	for name, n := range w.manager.Modules() {
		info, err := os.Stat(n.Path)
		if err != nil {
			logger.Debug("Cannot stat tracked unit.", "unit", name, "path", n.Path, "error", err)
			continue
		}

		last, known := w.seen[n.Path]
		w.seen[n.Path] = info.ModTime()
		if !known || !info.ModTime().After(last) {
			continue
		}

		logger.Info("Source changed, reloading.", "unit", name, "path", n.Path)
		if err := w.manager.ReloadModule(ctx, name, ""); err != nil {
			logger.Error("Reload failed.", "unit", name, "error", err)
		}
	}
}
