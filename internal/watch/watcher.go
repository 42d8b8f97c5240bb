package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher kicks a Trigger whenever one of a set of files changes. It watches
// the parent directories so files replaced by rename (as most editors save)
// keep being observed.
type Watcher struct {
	fw      *fsnotify.Watcher
	files   map[string]struct{}
	dirs    []string
	trigger *Trigger
	log     *zap.Logger
}

// NewWatcher creates a watcher for files that kicks trigger. The parent
// directories are registered before it returns, so changes made from then
// on are observed once Run starts.
func NewWatcher(files []string, trigger *Trigger, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Watcher{files: make(map[string]struct{}), trigger: trigger, log: log}

	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		log.Debug("Watching directory", zap.String("dir", dir))
	}
	w.fw = fw
	return w, nil
}

// Close stops watching. Run returns once the watcher is closed.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run delivers events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.log.Info("Configuration changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				w.trigger.Kick()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
