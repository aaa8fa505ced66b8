package suite

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/umputun/nbprobe/pkg/debug"
)

//go:embed fixture.yml
var defaultFixture []byte

// Fixture holds what the checks type into the notebook and expect back.
type Fixture struct {
	Version struct {
		Command string `yaml:"command"`
		Marker  string `yaml:"marker"`
	} `yaml:"version"`

	Operation struct {
		Name   string      `yaml:"name"`
		Source string      `yaml:"source"`
		Trace  debug.Trace `yaml:"trace"`
	} `yaml:"operation"`

	Modules struct {
		Present []string `yaml:"present"`
		Absent  []string `yaml:"absent"`
	} `yaml:"modules"`

	Debug struct {
		Button  string        `yaml:"button"`
		Banners debug.Banners `yaml:"banners"`
	} `yaml:"debug"`
}

// DefaultFixture returns the embedded fixture for the IQ# sample operation.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a fixture file. fields missing in the file keep the embedded defaults.
func LoadFixture(path string) (*Fixture, error) {
	if path == "" {
		return DefaultFixture()
	}
	data, err := os.ReadFile(path) //nolint:gosec // user supplied fixture path
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	fx, err := DefaultFixture()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := fx.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return fx, nil
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	fx := &Fixture{}
	if err := yaml.Unmarshal(data, fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return fx, nil
}

// Validate checks the fixture is usable by all checks.
func (f *Fixture) Validate() error {
	var errs []error
	if f.Version.Command == "" || f.Version.Marker == "" {
		errs = append(errs, errors.New("version command and marker are required"))
	}
	if f.Operation.Name == "" || f.Operation.Source == "" {
		errs = append(errs, errors.New("operation name and source are required"))
	}
	// debug paths take at most two steps, one gate per step
	if len(f.Operation.Trace.Gates) != 2 {
		errs = append(errs, fmt.Errorf("operation trace needs exactly 2 gates, got %d", len(f.Operation.Trace.Gates)))
	}
	if f.Debug.Button == "" {
		errs = append(errs, errors.New("debug button selector is required"))
	}
	if f.Debug.Banners.Start == "" || f.Debug.Banners.Controls == "" || f.Debug.Banners.Finish == "" {
		errs = append(errs, errors.New("all debug banners are required"))
	}
	return errors.Join(errs...)
}

// FullTrace is the trace of the operation run to completion.
func (f *Fixture) FullTrace() string {
	return f.Operation.Trace.Render(len(f.Operation.Trace.Gates))
}
