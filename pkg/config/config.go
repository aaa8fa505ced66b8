// Package config loads nbprobe settings from INI files.
// embedded defaults are merged with the global config (~/.config/nbprobe/config)
// and then with the project-local config (.nbprobe/config), local wins.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed defaults/config
var defaultsFS embed.FS

// DefaultsFS returns the embedded defaults filesystem.
func DefaultsFS() embed.FS {
	return defaultsFS
}

// localDirName is the project-local config directory, looked up in the working directory.
const localDirName = ".nbprobe"

// Config is the fully merged configuration.
type Config struct {
	Values
	Colors ColorConfig

	configDir string
	localDir  string
}

// Load installs defaults into configDir if needed and loads the merged configuration.
// empty configDir uses DefaultConfigDir. a .nbprobe directory in the working directory,
// if present, provides the local overrides.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	localDir := ""
	if fi, err := os.Stat(localDirName); err == nil && fi.IsDir() {
		localDir = localDirName
	}

	if err := newDefaultsInstaller(defaultsFS).Install(configDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}
	return loadWithLocal(configDir, localDir)
}

// loadWithLocal loads config from the global dir and an optional local dir without installing anything.
func loadWithLocal(configDir, localDir string) (*Config, error) {
	globalPath := filepath.Join(configDir, "config")
	localPath := ""
	if localDir != "" {
		localPath = filepath.Join(localDir, "config")
	}

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	cfg := &Config{Values: values, Colors: colors, configDir: configDir, localDir: localDir}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns ~/.config/nbprobe, honoring XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nbprobe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "nbprobe")
	}
	return filepath.Join(home, ".config", "nbprobe")
}

// ConfigDir returns the global config directory.
func (c *Config) ConfigDir() string { return c.configDir }

// LocalDir returns the local config directory, empty if none was found.
func (c *Config) LocalDir() string { return c.localDir }

// ServerWait returns the server startup wait.
func (c *Config) ServerWait() time.Duration { return ms(c.ServerWaitMs) }

// ServerPollInterval returns the interval between runtime registry reads.
func (c *Config) ServerPollInterval() time.Duration { return ms(c.ServerPollIntervalMs) }

// SessionTimeout returns the browser session initialization timeout.
func (c *Config) SessionTimeout() time.Duration { return ms(c.SessionTimeoutMs) }

// CellTimeout returns the per-cell output timeout.
func (c *Config) CellTimeout() time.Duration { return ms(c.CellTimeoutMs) }

// DebugTimeout returns the debug toolbar and settled output timeout.
func (c *Config) DebugTimeout() time.Duration { return ms(c.DebugTimeoutMs) }

// OutputPollInterval returns the interval between cell output reads.
func (c *Config) OutputPollInterval() time.Duration { return ms(c.OutputPollIntervalMs) }

func (c *Config) validate() error {
	var errs []error
	if c.ServerURL == "" && c.ServerToken != "" {
		errs = append(errs, errors.New("server_token is set without server_url"))
	}
	if c.ServerPollIntervalMsSet && c.ServerPollIntervalMs == 0 {
		errs = append(errs, errors.New("server_poll_interval_ms must be positive"))
	}
	if c.OutputPollIntervalMsSet && c.OutputPollIntervalMs == 0 {
		errs = append(errs, errors.New("output_poll_interval_ms must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// stripComments removes lines starting with # (comment lines) from content.
// handles both Unix (LF) and Windows (CRLF) line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
