package plugin

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

const watchDebounce = 200 * time.Millisecond

// SettingsWatcher reloads the settings file when it changes on disk and
// applies the overrides to the registry. Editors replace files via rename,
// so the parent directory is watched rather than the file itself.
type SettingsWatcher struct {
	registry *Registry
	path     string
	logger   *logger.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewSettingsWatcher(registry *Registry, path string, log *logger.Logger) *SettingsWatcher {
	return &SettingsWatcher{
		registry: registry,
		path:     path,
		logger:   log,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It returns after the watch is established; reloads
// happen on a background goroutine until Stop or context cancellation.
func (w *SettingsWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	go w.loop(ctx)

	w.logger.Info("watching plugin settings", logger.Field{Key: "path", Value: w.path})
	return nil
}

func (w *SettingsWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors emit several events per save.
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("settings watch error", err)
		}
	}
}

func (w *SettingsWatcher) reload(ctx context.Context) {
	settings, err := LoadSettings(w.path)
	if err != nil {
		w.logger.Error("failed to reload settings", err,
			logger.Field{Key: "path", Value: w.path})
		return
	}

	errs := w.registry.ApplySettings(ctx, settings)
	for _, err := range errs {
		w.logger.Warn("settings apply", logger.Field{Key: "error", Value: err.Error()})
	}
	w.logger.Info("plugin settings reloaded", logger.Field{Key: "plugins", Value: len(settings)})
}

func (w *SettingsWatcher) Stop() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
