// Package config loads calltrace.yaml.
//
// Example:
//
//	compiler:
//	  debug: true
//	trace:
//	  unit_id: 7
//	  sinks:
//	    - kind: text
//	    - kind: sqlite
//	      path: trace.db
//	    - kind: grpc
//	      addr: localhost:7070
//	log:
//	  level: debug
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level calltrace.yaml configuration.
type Config struct {
	Compiler CompilerConfig `yaml:"compiler"`
	Trace    TraceConfig    `yaml:"trace"`
	Log      LogConfig      `yaml:"log"`
}

type CompilerConfig struct {
	// Debug wraps statements with source positions for runtime errors.
	Debug bool `yaml:"debug"`
}

type TraceConfig struct {
	// UnitID is reported with every event of the traced unit.
	UnitID int `yaml:"unit_id"`
	// AllowUnrecorded leaves call sites without a recorded span untraced
	// instead of failing instrumentation.
	AllowUnrecorded bool         `yaml:"allow_unrecorded,omitempty"`
	Sinks           []SinkConfig `yaml:"sinks,omitempty"`
}

// SinkConfig describes where trace events go.
type SinkConfig struct {
	Kind string `yaml:"kind"`
	// Path is the output file for text sinks (empty means stderr) and the
	// database file for sqlite sinks.
	Path string `yaml:"path,omitempty"`
	// Addr is the collector address for grpc sinks.
	Addr string `yaml:"addr,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a calltrace.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses calltrace.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and means all defaults.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for calltrace.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error if none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ParseSink parses the -trace flag: text, text:PATH, sqlite:PATH or
// grpc:ADDR.
func ParseSink(spec string) (SinkConfig, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	sc := SinkConfig{Kind: kind}
	switch kind {
	case SinkText:
		sc.Path = arg
	case SinkSQLite:
		sc.Path = arg
	case SinkGRPC:
		sc.Addr = arg
	}
	if err := sc.validate(); err != nil {
		return SinkConfig{}, fmt.Errorf("-trace %q: %w", spec, err)
	}
	return sc, nil
}

func (c *Config) validate(path string) error {
	if c.Trace.UnitID < 0 {
		return fmt.Errorf("%s: trace.unit_id must not be negative", path)
	}
	for i, s := range c.Trace.Sinks {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%s: trace.sinks[%d]: %w", path, i, err)
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: log.level: unknown level %q", path, c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%s: log.format: unknown format %q", path, c.Log.Format)
	}
	return nil
}

func (s SinkConfig) validate() error {
	switch s.Kind {
	case SinkText:
		if s.Addr != "" {
			return fmt.Errorf("addr is not valid for %s sinks", s.Kind)
		}
	case SinkSQLite:
		if s.Path == "" {
			return fmt.Errorf("path is required for %s sinks", s.Kind)
		}
		if s.Addr != "" {
			return fmt.Errorf("addr is not valid for %s sinks", s.Kind)
		}
	case SinkGRPC:
		if s.Addr == "" {
			return fmt.Errorf("addr is required for %s sinks", s.Kind)
		}
		if s.Path != "" {
			return fmt.Errorf("path is not valid for %s sinks", s.Kind)
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("kind: unknown sink kind %q", s.Kind)
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
