package discovery

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuntimeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestRuntimeRegistry_Servers(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	older := writeRuntimeFile(t, dir, "nbserver-100.json",
		`{"url": "http://localhost:8888/", "token": "abc", "pid": 100, "port": 8888, "base_url": "/"}`, now.Add(-time.Hour))
	newer := writeRuntimeFile(t, dir, "jpserver-200.json",
		`{"url": "http://localhost:8889/", "token": "def", "pid": 200, "port": 8889}`, now)
	writeRuntimeFile(t, dir, "nbserver-300.json", `{not json`, now)
	writeRuntimeFile(t, dir, "nbserver-400.json", `{"token": "no-url", "pid": 400}`, now)
	writeRuntimeFile(t, dir, "nbserver-500.json", `{"url": "http://localhost:9999/", "pid": 500}`, now)
	writeRuntimeFile(t, dir, "kernel-123.json", `{"url": "http://ignored/"}`, now)

	reg := NewRuntimeRegistry(dir)
	reg.alive = func(pid int) bool { return pid != 500 }

	records, err := reg.Servers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "http://localhost:8889/", records[0].URL)
	assert.Equal(t, "def", records[0].Token)
	assert.Equal(t, newer, records[0].Source)

	assert.Equal(t, "http://localhost:8888/", records[1].URL)
	assert.Equal(t, 8888, records[1].Port)
	assert.Equal(t, "/", records[1].BaseURL)
	assert.Equal(t, older, records[1].Source)
}

func TestRuntimeRegistry_MissingDir(t *testing.T) {
	reg := NewRuntimeRegistry(filepath.Join(t.TempDir(), "nope"))
	records, err := reg.Servers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRuntimeRegistry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRuntimeRegistry(t.TempDir()).Servers(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRuntimeRegistry_DoesNotRemoveStaleFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeRuntimeFile(t, dir, "nbserver-1.json", `{"url": "http://localhost:1/", "pid": 1}`, time.Now())

	reg := NewRuntimeRegistry(dir)
	reg.alive = func(int) bool { return false }
	records, err := reg.Servers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.FileExists(t, path)
}

func TestRuntimeRegistry_CurrentProcessIsAlive(t *testing.T) {
	dir := t.TempDir()
	writeRuntimeFile(t, dir, "nbserver-self.json",
		`{"url": "http://localhost:8888/", "pid": `+strconv.Itoa(os.Getpid())+`}`, time.Now())

	records, err := NewRuntimeRegistry(dir).Servers(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileRegistry_Servers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jpserver-42.json")
	reg := NewFileRegistry(path)
	reg.runtime.alive = func(int) bool { return true }

	records, err := reg.Servers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records, "missing file is no server yet")

	writeRuntimeFile(t, dir, "jpserver-42.json", `{"url": "http://localh`, time.Now())
	records, err = reg.Servers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records, "half written file is no server yet")

	writeRuntimeFile(t, dir, "jpserver-42.json", `{"url": "http://localhost:8890/", "token": "t", "pid": 42}`, time.Now())
	writeRuntimeFile(t, dir, "jpserver-43.json", `{"url": "http://localhost:8891/", "pid": 43}`, time.Now())
	records, err = reg.Servers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "http://localhost:8890/", records[0].URL)
	assert.Equal(t, path, records[0].Source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reg.Servers(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRuntimeDirFor(t *testing.T) {
	env := func(kv map[string]string) func(string) string {
		return func(k string) string { return kv[k] }
	}

	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{name: "explicit runtime dir", goos: "linux", env: map[string]string{"JUPYTER_RUNTIME_DIR": "/rt"}, want: "/rt"},
		{name: "data dir", goos: "linux", env: map[string]string{"JUPYTER_DATA_DIR": "/data"}, want: filepath.Join("/data", "runtime")},
		{name: "xdg", goos: "linux", env: map[string]string{"XDG_DATA_HOME": "/xdg"}, want: filepath.Join("/xdg", "jupyter", "runtime")},
		{name: "linux default", goos: "linux", want: filepath.Join("/home/u", ".local", "share", "jupyter", "runtime")},
		{name: "darwin", goos: "darwin", want: filepath.Join("/home/u", "Library", "Jupyter", "runtime")},
		{name: "windows appdata", goos: "windows", env: map[string]string{"APPDATA": "/appdata"}, want: filepath.Join("/appdata", "jupyter", "runtime")},
		{name: "windows fallback", goos: "windows", want: filepath.Join("/home/u", ".jupyter", "runtime")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, runtimeDirFor(tc.goos, env(tc.env), "/home/u"))
		})
	}
}

func TestServerRecord_URLs(t *testing.T) {
	rec := ServerRecord{URL: "http://localhost:8888", Token: "s3cr3t&x"}
	assert.Equal(t, "http://localhost:8888/", rec.Root())
	assert.Equal(t, "http://localhost:8888/?token=s3cr3t%26x", rec.SessionURL())
	assert.Equal(t, "http://localhost:8888/?token=[REDACTED]", rec.Redacted())
	assert.NotContains(t, rec.Redacted(), "s3cr3t")

	noToken := ServerRecord{URL: "http://localhost:8888/"}
	assert.Equal(t, "http://localhost:8888/", noToken.SessionURL())
	assert.Equal(t, "http://localhost:8888/", noToken.Redacted())
}
