package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Reloader watches the safety config file and pushes reloaded settings
// through a callback.
type Reloader struct {
	watcher *fsnotify.Watcher
	path    string
	apply   func(*Safety)
	log     *logrus.Logger
}

// NewReloader creates a watcher for the safety config at path. apply is
// invoked with the freshly parsed config after each change.
func NewReloader(path string, log *logrus.Logger, apply func(*Safety)) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}
	return &Reloader{watcher: watcher, path: path, apply: apply, log: log}, nil
}

// Run watches for changes until ctx is cancelled. Writes are debounced
// by 500ms; a reload that fails to parse keeps the previous settings.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(500 * time.Millisecond)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			cfg, err := LoadSafety(r.path)
			if err != nil {
				r.log.WithField("error", err.Error()).Warn("safety config reload failed, keeping previous settings")
				continue
			}
			r.apply(cfg)
			r.log.WithField("path", r.path).Info("safety config reloaded")

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.WithField("error", err.Error()).Warn("config watcher error")
		}
	}
}
