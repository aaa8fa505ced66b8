package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports runtime files of newly started servers.
type Watcher struct {
	dir     string
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	seen    map[string]struct{}
	closeMu sync.Once
}

// NewWatcher starts watching the runtime directory. the directory must exist.
func NewWatcher(dir string) (*Watcher, error) {
	if dir == "" {
		dir = RuntimeDir()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, fsw: fsw, seen: make(map[string]struct{})}, nil
}

// Run blocks until ctx is done, calling onServer once for every new server runtime file.
// onServer runs on the watcher goroutine, slow callbacks delay later notifications.
func (w *Watcher) Run(ctx context.Context, onServer func(path string)) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if path, isNew := w.accept(ev); isNew {
				onServer(path)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.dir, err)
		}
	}
}

// accept filters events down to first sightings of server runtime files.
// a removed file is forgotten, so a restarted server with the same pid file is reported again.
func (w *Watcher) accept(ev fsnotify.Event) (string, bool) {
	if !isRuntimeFile(ev.Name) {
		return "", false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		delete(w.seen, ev.Name)
		return "", false
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	if _, ok := w.seen[ev.Name]; ok {
		return "", false
	}
	w.seen[ev.Name] = struct{}{}
	return ev.Name, true
}

// Close stops the watcher. safe to call more than once.
func (w *Watcher) Close() {
	w.closeMu.Do(func() { _ = w.fsw.Close() })
}

func isRuntimeFile(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range runtimeFilePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
