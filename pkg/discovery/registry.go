package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// Registry lists running notebook servers. implementations must be read-only.
type Registry interface {
	Servers(ctx context.Context) ([]ServerRecord, error)
}

// runtimeFilePatterns match the files classic notebook and jupyter_server write on startup.
var runtimeFilePatterns = []string{"nbserver-*.json", "jpserver-*.json"}

// RuntimeRegistry reads server records from the jupyter runtime directory.
type RuntimeRegistry struct {
	dir   string
	alive func(pid int) bool
}

// NewRuntimeRegistry makes a registry for the given runtime directory.
// empty dir resolves to the platform default, see RuntimeDir.
func NewRuntimeRegistry(dir string) *RuntimeRegistry {
	if dir == "" {
		dir = RuntimeDir()
	}
	return &RuntimeRegistry{dir: dir, alive: processAlive}
}

// Servers returns records of live servers, newest runtime file first.
// a missing directory is not an error, the server may not have created it yet.
// malformed files and files of dead processes are skipped, never removed.
func (r *RuntimeRegistry) Servers(ctx context.Context) ([]ServerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type found struct {
		rec   ServerRecord
		mtime time.Time
	}
	var res []found

	for _, pattern := range runtimeFilePatterns {
		matches, err := filepath.Glob(filepath.Join(r.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, path := range matches {
			rec, mtime, ok := r.readRecord(path)
			if !ok {
				continue
			}
			res = append(res, found{rec: rec, mtime: mtime})
		}
	}

	sort.SliceStable(res, func(i, j int) bool { return res[i].mtime.After(res[j].mtime) })

	records := make([]ServerRecord, 0, len(res))
	for _, f := range res {
		records = append(records, f.rec)
	}
	return records, nil
}

// readRecord parses one runtime file. returns false for unreadable, malformed or stale files.
func (r *RuntimeRegistry) readRecord(path string) (ServerRecord, time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return ServerRecord{}, time.Time{}, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from glob inside runtime dir
	if err != nil {
		return ServerRecord{}, time.Time{}, false
	}

	var rec ServerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ServerRecord{}, time.Time{}, false
	}
	if rec.URL == "" {
		return ServerRecord{}, time.Time{}, false
	}
	if rec.PID > 0 && r.alive != nil && !r.alive(rec.PID) {
		return ServerRecord{}, time.Time{}, false
	}
	rec.Source = path
	return rec, info.ModTime(), true
}

// FileRegistry reports the server of a single runtime file. it follows a server announced
// by the Watcher, whose runtime file may still be half written when the event arrives.
type FileRegistry struct {
	runtime RuntimeRegistry
	path    string
}

// NewFileRegistry makes a registry for one runtime file.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{runtime: RuntimeRegistry{dir: filepath.Dir(path), alive: processAlive}, path: path}
}

// Servers returns the record of the file once it parses, nothing before that.
func (f *FileRegistry) Servers(ctx context.Context) ([]ServerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, _, ok := f.runtime.readRecord(f.path)
	if !ok {
		return nil, nil
	}
	return []ServerRecord{rec}, nil
}

// RuntimeDir returns the jupyter runtime directory for the current platform.
func RuntimeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return runtimeDirFor(runtime.GOOS, os.Getenv, home)
}

// runtimeDirFor resolves the runtime directory the same way jupyter_core does.
func runtimeDirFor(goos string, getenv func(string) string, home string) string {
	if d := getenv("JUPYTER_RUNTIME_DIR"); d != "" {
		return d
	}
	if d := getenv("JUPYTER_DATA_DIR"); d != "" {
		return filepath.Join(d, "runtime")
	}

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Jupyter", "runtime")
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "jupyter", "runtime")
		}
		return filepath.Join(home, ".jupyter", "runtime")
	default:
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "jupyter", "runtime")
		}
		return filepath.Join(home, ".local", "share", "jupyter", "runtime")
	}
}
