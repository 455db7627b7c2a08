// Package config loads the diskpipe command configuration from YAML
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/haraqa/diskpipe"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the content of a configuration file. Unset fields take their
// defaults and command line flags override both.
type Config struct {
	Format       string   `yaml:"format"`
	SpinBudget   *int     `yaml:"spin_budget"`
	SyncEvery    *int     `yaml:"sync_every"`
	Portable     bool     `yaml:"portable"`
	PollInterval Duration `yaml:"poll_interval"`
	LogLevel     string   `yaml:"log_level"`
	MetricsAddr  string   `yaml:"metrics_addr"`
}

// Duration is a time.Duration written as "100ms" or "2s"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used without a file
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// Parse decodes YAML, rejecting unknown keys, and applies defaults
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse yaml")
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDefaults sets default values for unspecified fields
func (c *Config) ApplyDefaults() {
	if c.Format == "" {
		c.Format = diskpipe.Fixed.String()
	}
	if c.SpinBudget == nil {
		n := wait.DefaultBudget
		c.SpinBudget = &n
	}
	if c.SyncEvery == nil {
		n := 1
		c.SyncEvery = &n
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(platform.DefaultPollInterval)
	}
	if c.LogLevel == "" {
		c.LogLevel = logrus.WarnLevel.String()
	}
}

// Validate reports the first invalid field
func (c *Config) Validate() error {
	if _, err := diskpipe.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.SpinBudget != nil && *c.SpinBudget < 0 {
		return errors.Errorf("spin_budget must not be negative, got %d", *c.SpinBudget)
	}
	if c.SyncEvery != nil && *c.SyncEvery < 0 {
		return errors.Errorf("sync_every must not be negative, got %d", *c.SyncEvery)
	}
	if c.PollInterval < 0 {
		return errors.Errorf("poll_interval must be positive, got %v", time.Duration(c.PollInterval))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	return nil
}

// Level is the parsed log level
func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return l
}

// Options converts the configuration to diskpipe options
func (c *Config) Options() ([]diskpipe.Option, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	format, _ := diskpipe.ParseFormat(c.Format)
	return []diskpipe.Option{
		diskpipe.WithFormat(format),
		diskpipe.WithSpinBudget(*c.SpinBudget),
		diskpipe.WithSyncEvery(*c.SyncEvery),
		diskpipe.WithPortable(c.Portable),
		diskpipe.WithPollInterval(time.Duration(c.PollInterval)),
	}, nil
}
