package app

import (
	"context"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Shutdown stops components in reverse initialization order. It is
// idempotent and keeps going past individual failures so every component
// gets a chance to stop.
func (a *App) Shutdown() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	a.mu.Unlock()

	a.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	record := func(err error) {
		if err != nil {
			a.logger.Error("shutdown step failed", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}

	if a.agent != nil {
		a.agent.Stop()
	}

	// Disabling stops plugin workers: telegram long polling, cron timers.
	if a.plugins != nil {
		for _, p := range a.plugins.List() {
			if a.plugins.IsEnabled(p.ID()) {
				record(a.plugins.Disable(ctx, p.ID()))
			}
		}
	}

	if a.workerPool != nil {
		a.workerPool.Stop()
	}

	if a.metricsSrv != nil {
		record(a.metricsSrv.Stop(ctx))
	}

	if a.messageBus != nil {
		record(a.messageBus.Stop())
	}

	if a.cancel != nil {
		a.cancel()
	}

	a.logger.Info("shutdown complete")
	return firstErr
}
