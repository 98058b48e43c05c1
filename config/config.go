// Package config loads napkit settings from YAML, TOML or JSON files and
// converts each section into the options of the component it configures.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

// Duration wraps time.Duration so it reads and writes as "30s" in every
// format.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds every configurable section.
type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging" toml:"logging"`
	Filter    FilterConfig    `json:"filter" yaml:"filter" toml:"filter"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" toml:"normalize"`
	Labels    LabelsConfig    `json:"labels" yaml:"labels" toml:"labels"`
	Auditory  AuditoryConfig  `json:"auditory" yaml:"auditory" toml:"auditory"`
	Aligner   AlignerConfig   `json:"aligner" yaml:"aligner" toml:"aligner"`
	Decoder   DecoderConfig   `json:"decoder" yaml:"decoder" toml:"decoder"`
}

// Load reads path, choosing the parser by extension. Keys missing from the
// file keep their Default values. The result is validated.
func Load(path string) (*Config, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	cfg, err := Parse(content, format)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return cfg, nil
}

// Parse decodes content in the given format over Default and validates it.
func Parse(content []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, errors.Wrap(err, "YAML parse error")
		}
	case FormatTOML:
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return nil, errors.Wrap(err, "TOML parse error")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "JSON parse error")
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg in the given format.
func (c *Config) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(c)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(c, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Validate checks every section and reports the first problem.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		check   func() error
	}{
		{"logging", c.Logging.validate},
		{"filter", c.Filter.validate},
		{"normalize", c.Normalize.validate},
		{"labels", c.Labels.validate},
		{"auditory", c.Auditory.validate},
		{"aligner", c.Aligner.validate},
		{"decoder", c.Decoder.validate},
	}
	for _, ch := range checks {
		if err := ch.check(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}
