package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultsInstaller writes the embedded config into a fresh config dir, so users
// have a commented file to edit. a config the user already has is left alone.
type defaultsInstaller struct {
	fsys fs.FS
}

func newDefaultsInstaller(fsys fs.FS) *defaultsInstaller {
	return &defaultsInstaller{fsys: fsys}
}

// Install creates configDir (user only) and writes config there unless it exists.
func (d *defaultsInstaller) Install(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := fs.ReadFile(d.fsys, "defaults/config")
	if err != nil {
		return fmt.Errorf("read embedded config: %w", err)
	}

	// O_EXCL keeps two nbprobe processes starting at once from clobbering each other
	f, err := os.OpenFile(filepath.Join(configDir, "config"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // dir from user home
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close config file: %w", err)
	}
	return nil
}
