package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// layer is one config source. layers are applied lowest priority first,
// embedded defaults, then the global file, then the local one.
type layer struct {
	name string
	data []byte // nil when the file does not exist
}

// readLayers reads the embedded defaults and the optional global and local files.
// empty paths and missing files give empty layers.
func readLayers(fsys fs.FS, localPath, globalPath string) ([]layer, error) {
	embedded, err := fs.ReadFile(fsys, "defaults/config")
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}

	layers := []layer{{name: "embedded defaults", data: embedded}}
	for _, f := range []struct{ name, path string }{{"global config", globalPath}, {"local config", localPath}} {
		data, err := readOptional(f.path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer{name: f.name, data: data})
	}
	return layers, nil
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // config path built from the config dir
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return data, nil
}

// section parses the layer and returns its default section, nil for a layer
// without any setting, e.g. the commented template written on first run.
func (l layer) section() (*ini.Section, error) {
	if strings.TrimSpace(stripComments(string(l.data))) == "" {
		return nil, nil
	}
	// IgnoreInlineComment keeps "#" in hex colors and urls
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, l.data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.name, err)
	}
	return f.Section(""), nil
}
