package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// ColorConfig holds progress output colors as "r,g,b" strings, parsed from #rrggbb or #rgb config values.
type ColorConfig struct {
	Discover  string
	Check     string
	Report    string
	Warn      string
	Error     string
	Timestamp string
	Info      string
}

// colorKeys maps config keys to ColorConfig fields.
var colorKeys = []struct {
	key   string
	field func(*ColorConfig) *string
}{
	{"color_discover", func(c *ColorConfig) *string { return &c.Discover }},
	{"color_check", func(c *ColorConfig) *string { return &c.Check }},
	{"color_report", func(c *ColorConfig) *string { return &c.Report }},
	{"color_warn", func(c *ColorConfig) *string { return &c.Warn }},
	{"color_error", func(c *ColorConfig) *string { return &c.Error }},
	{"color_timestamp", func(c *ColorConfig) *string { return &c.Timestamp }},
	{"color_info", func(c *ColorConfig) *string { return &c.Info }},
}

// colorLoader merges ColorConfig over the config layers.
type colorLoader struct {
	fsys fs.FS
}

func newColorLoader(fsys fs.FS) *colorLoader {
	return &colorLoader{fsys: fsys}
}

// Load merges the colors of embedded defaults, the global and the local config file.
// a color set in a later layer replaces the earlier one, empty values are ignored.
func (cl *colorLoader) Load(localPath, globalPath string) (ColorConfig, error) {
	layers, err := readLayers(cl.fsys, localPath, globalPath)
	if err != nil {
		return ColorConfig{}, err
	}

	var res ColorConfig
	for _, l := range layers {
		sec, err := l.section()
		if err != nil {
			return ColorConfig{}, err
		}
		if sec == nil {
			continue
		}
		c, err := parseColors(sec)
		if err != nil {
			return ColorConfig{}, fmt.Errorf("%s: %w", l.name, err)
		}
		res.mergeFrom(&c)
	}
	return res, nil
}

// parseColors reads the color keys of section.
func parseColors(section *ini.Section) (ColorConfig, error) {
	var res ColorConfig
	for _, ck := range colorKeys {
		key, err := section.GetKey(ck.key)
		if err != nil {
			continue
		}
		hex := strings.TrimSpace(key.String())
		if hex == "" {
			continue
		}
		rgb, err := parseHexColor(hex)
		if err != nil {
			return ColorConfig{}, fmt.Errorf("invalid %s: %w", ck.key, err)
		}
		*ck.field(&res) = rgb
	}
	return res, nil
}

// parseHexColor turns "#ff8800" or the short "#f80" into "255,136,0".
func parseHexColor(hex string) (string, error) {
	if !strings.HasPrefix(hex, "#") {
		return "", errors.New("hex color must start with #")
	}
	digits := hex[1:]
	switch len(digits) {
	case 3:
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	case 6:
	default:
		return "", fmt.Errorf("hex color %q must have 3 or 6 digits", hex)
	}

	val, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return fmt.Sprintf("%d,%d,%d", val>>16&0xff, val>>8&0xff, val&0xff), nil
}

// mergeFrom copies the non-empty colors of src into dst.
func (dst *ColorConfig) mergeFrom(src *ColorConfig) {
	for _, ck := range colorKeys {
		if v := *ck.field(src); v != "" {
			*ck.field(dst) = v
		}
	}
}
