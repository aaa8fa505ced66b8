package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsNewServerFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string) {
			mu.Lock()
			got = append(got, path)
			mu.Unlock()
		})
	}()

	serverFile := filepath.Join(dir, "nbserver-42.json")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kernel-1.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(serverFile, []byte(`{"url": "http://localhost:8888/"}`), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 20*time.Millisecond)

	// rewriting the same file is not a new server
	require.NoError(t, os.WriteFile(serverFile, []byte(`{"url": "http://localhost:8888/", "pid": 1}`), 0o600))
	time.Sleep(200 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{serverFile}, got)
}

func TestWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestWatcher_Accept(t *testing.T) {
	w := &Watcher{seen: make(map[string]struct{})}

	path, ok := w.accept(fsnotify.Event{Name: "/rt/nbserver-1.json", Op: fsnotify.Create})
	assert.True(t, ok)
	assert.Equal(t, "/rt/nbserver-1.json", path)

	_, ok = w.accept(fsnotify.Event{Name: "/rt/nbserver-1.json", Op: fsnotify.Write})
	assert.False(t, ok, "already seen")

	_, ok = w.accept(fsnotify.Event{Name: "/rt/nbserver-1.json", Op: fsnotify.Remove})
	assert.False(t, ok)

	_, ok = w.accept(fsnotify.Event{Name: "/rt/nbserver-1.json", Op: fsnotify.Create})
	assert.True(t, ok, "reported again after removal")

	_, ok = w.accept(fsnotify.Event{Name: "/rt/jpserver-2.json", Op: fsnotify.Chmod})
	assert.False(t, ok)

	_, ok = w.accept(fsnotify.Event{Name: "/rt/kernel-2.json", Op: fsnotify.Create})
	assert.False(t, ok)
}
