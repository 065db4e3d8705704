// Package config loads the optional tasslsrc YAML file.
//
// Example:
//
//	targets:
//	  - triple: mips64-unknown-linux-gnuabi64
//	    os: linux64-mips64
//	configure_args: [no-async]
//	env:
//	  CFLAGS: -g
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goplus/tasslsrc/pkgs/target"
	"gopkg.in/yaml.v3"
)

// Config adjusts a build without code changes.
type Config struct {
	// Targets are consulted before the built-in table.
	Targets []target.Mapping `yaml:"targets"`

	// ConfigureArgs are appended to the fixed configure flags.
	ConfigureArgs []string `yaml:"configure_args"`

	// Env is forwarded to every build step.
	Env map[string]string `yaml:"env"`
}

// Load reads and validates the file at path. An empty path yields a zero Config.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i, m := range c.Targets {
		if m.Triple == "" || m.ID == "" {
			return nil, fmt.Errorf("config: targets[%d]: both triple and os are required", i)
		}
	}
	for k := range c.Env {
		if k == "" || strings.Contains(k, "=") {
			return nil, fmt.Errorf("config: invalid env key %q", k)
		}
	}
	return &c, nil
}

// Table returns base extended with the configured targets.
func (c *Config) Table(base target.Table) target.Table {
	if len(c.Targets) == 0 {
		return base
	}
	return base.With(c.Targets...)
}
