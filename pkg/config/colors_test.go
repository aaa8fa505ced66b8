package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func TestColorLoader_Load_EmbeddedOnly(t *testing.T) {
	loader := newColorLoader(DefaultsFS())
	colors, err := loader.Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ColorConfig{
		Discover:  "180,180,180",
		Check:     "0,255,0",
		Report:    "0,255,255",
		Warn:      "255,197,109",
		Error:     "255,0,0",
		Timestamp: "138,138,138",
		Info:      "180,180,180",
	}, colors)
}

func TestColorLoader_Load_LocalOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global-config")
	localConfig := filepath.Join(tmpDir, "local-config")

	require.NoError(t, os.WriteFile(globalConfig, []byte("color_check = #ff0000\ncolor_error = #00ff00\n"), 0o600))
	require.NoError(t, os.WriteFile(localConfig, []byte("color_check = #0000ff\n"), 0o600))

	loader := newColorLoader(DefaultsFS())
	colors, err := loader.Load(localConfig, globalConfig)
	require.NoError(t, err)

	assert.Equal(t, "0,0,255", colors.Check, "local wins")
	assert.Equal(t, "0,255,0", colors.Error, "global preserved when not overridden")
	assert.Equal(t, "0,255,255", colors.Report, "embedded default for unset color")
}

func TestColorLoader_Load_NonExistentFiles(t *testing.T) {
	loader := newColorLoader(DefaultsFS())
	colors, err := loader.Load("/nonexistent/local", "/nonexistent/global")
	require.NoError(t, err)
	assert.Equal(t, "0,255,0", colors.Check)
	assert.Equal(t, "255,0,0", colors.Error)
}

func TestColorLoader_Load_InvalidColor(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		errPart string
	}{
		{name: "missing hash", config: "color_check = ff0000", errPart: "global config: invalid color_check"},
		{name: "wrong length", config: "color_report = #ffff", errPart: "global config: invalid color_report"},
		{name: "invalid chars", config: "color_discover = #gggggg", errPart: "global config: invalid color_discover"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.config), 0o600))

			_, err := newColorLoader(DefaultsFS()).Load("", configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestParseColors(t *testing.T) {
	section := func(t *testing.T, data string) *ini.Section {
		t.Helper()
		f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, []byte(data))
		require.NoError(t, err)
		return f.Section("")
	}

	t.Run("all keys", func(t *testing.T) {
		colors, err := parseColors(section(t, `
color_discover = #010203
color_check = #040506
color_report = #070809
color_warn = #0a0b0c
color_error = #0d0e0f
color_timestamp = #101112
color_info = #131415
`))
		require.NoError(t, err)
		assert.Equal(t, ColorConfig{
			Discover: "1,2,3", Check: "4,5,6", Report: "7,8,9", Warn: "10,11,12",
			Error: "13,14,15", Timestamp: "16,17,18", Info: "19,20,21",
		}, colors)
	})

	t.Run("whitespace and empty values", func(t *testing.T) {
		colors, err := parseColors(section(t, "color_check =   #ff0000  \ncolor_report =\n"))
		require.NoError(t, err)
		assert.Equal(t, "255,0,0", colors.Check)
		assert.Empty(t, colors.Report)
	})

	t.Run("no colors", func(t *testing.T) {
		colors, err := parseColors(section(t, "kernel = iqsharp\n"))
		require.NoError(t, err)
		assert.Equal(t, ColorConfig{}, colors)
	})
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name   string
		hex    string
		want   string
		errMsg string
	}{
		{name: "red", hex: "#ff0000", want: "255,0,0"},
		{name: "mixed case", hex: "#AaBbCc", want: "170,187,204"},
		{name: "gray", hex: "#8a8a8a", want: "138,138,138"},
		{name: "short form", hex: "#f80", want: "255,136,0"},
		{name: "missing # prefix", hex: "ff0000", errMsg: "must start with #"},
		{name: "four digits", hex: "#ffff", errMsg: "must have 3 or 6 digits"},
		{name: "long", hex: "#ff00ff00", errMsg: "must have 3 or 6 digits"},
		{name: "empty", hex: "", errMsg: "must start with #"},
		{name: "invalid char", hex: "#zz0000", errMsg: "invalid hex"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseHexColor(tc.hex)
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestColorConfig_mergeFrom(t *testing.T) {
	dst := &ColorConfig{Check: "1,1,1", Error: "2,2,2"}
	dst.mergeFrom(&ColorConfig{Check: "3,3,3", Report: "4,4,4"})
	assert.Equal(t, ColorConfig{Check: "3,3,3", Report: "4,4,4", Error: "2,2,2"}, *dst)

	dst.mergeFrom(&ColorConfig{})
	assert.Equal(t, ColorConfig{Check: "3,3,3", Report: "4,4,4", Error: "2,2,2"}, *dst, "empty source changes nothing")
}

func TestColorLoader_Load_Unreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	configPath := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(configPath, []byte("color_check = #ff0000"), 0o600))
	require.NoError(t, os.Chmod(configPath, 0o000))
	t.Cleanup(func() { _ = os.Chmod(configPath, 0o600) })

	_, err := newColorLoader(DefaultsFS()).Load("", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestReadLayers(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global")
	require.NoError(t, os.WriteFile(global, []byte("kernel = x\n"), 0o600))

	layers, err := readLayers(DefaultsFS(), filepath.Join(dir, "missing"), global)
	require.NoError(t, err)
	require.Len(t, layers, 3)
	assert.Equal(t, "embedded defaults", layers[0].name)
	assert.NotEmpty(t, layers[0].data)
	assert.Equal(t, "global config", layers[1].name)
	assert.Equal(t, "kernel = x\n", string(layers[1].data))
	assert.Equal(t, "local config", layers[2].name)
	assert.Nil(t, layers[2].data)

	sec, err := layers[2].section()
	require.NoError(t, err)
	assert.Nil(t, sec, "missing file has no settings")

	sec, err = layer{name: "template", data: []byte("# kernel = y\n")}.section()
	require.NoError(t, err)
	assert.Nil(t, sec, "comment only file has no settings")
}
