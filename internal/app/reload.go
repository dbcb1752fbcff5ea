package app

import (
	"github.com/dshills/cmdtree/internal/logging"
	"github.com/dshills/cmdtree/internal/watcher"
)

// Reload loads the script again and swaps its tree in. On failure the
// current tree stays active and a *ReloadError is returned.
func (app *Application) Reload() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return ErrClosed
	}
	if app.script == nil {
		return ErrNoScript
	}

	path := app.config.Script.Path
	next, err := app.loadScript()
	if err != nil {
		return &ReloadError{Path: path, Err: err}
	}
	if err := app.dispatcher.Replace(next.Root(), next.Registry()); err != nil {
		_ = next.Close()
		return &ReloadError{Path: path, Err: err}
	}

	// Waits for a handler still running on the old state.
	_ = app.script.Close()
	app.script = next
	app.reloads.Add(1)
	app.logger.WithField("script", path).Info("reloaded command tree")
	return nil
}

func (app *Application) watchLoop() {
	defer app.wg.Done()

	log := app.logger.WithComponent("watcher")
	for {
		select {
		case <-app.done:
			return

		case ev, ok := <-app.watcher.Events():
			if !ok {
				return
			}
			app.handleFileEvent(ev, log)

		case err, ok := <-app.watcher.Errors():
			if !ok {
				return
			}
			log.WithError(err).Warn("watch error")
		}
	}
}

func (app *Application) handleFileEvent(ev watcher.Event, log *logging.Logger) {
	if ev.Removed() {
		log.Warn("script %s removed; keeping current tree", ev.Path)
		return
	}
	log.Debug("script %s changed (%s)", ev.Path, ev.Op)
	if err := app.Reload(); err != nil {
		log.Warn("%v; keeping current tree", err)
	}
}
