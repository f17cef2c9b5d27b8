// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/smileynet/signup/internal/form"
	"github.com/smileynet/signup/internal/signup"
)

// Config holds all signup configuration.
type Config struct {
	Submit Submit `yaml:"submit"`
	Form   Form   `yaml:"form"`
	Log    Log    `yaml:"log"`
}

// Submit holds submitter selection and delivery settings.
type Submit struct {
	Submitter string        `yaml:"submitter"` // "log" | "http"
	Endpoint  string        `yaml:"endpoint"`  // Required by the http submitter
	Timeout   time.Duration `yaml:"timeout"`
}

// Form holds form behaviour settings.
type Form struct {
	ShowPassword  bool            `yaml:"show_password"`  // Initial visibility of the password input
	DisplayErrors map[string]bool `yaml:"display_errors"` // Field name -> render violations
}

// Log holds logging settings.
type Log struct {
	File  string `yaml:"file"` // Empty logs to stderr
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	display := map[string]bool{}
	for f, shown := range form.DefaultErrorDisplay() {
		display[string(f)] = shown
	}
	return Config{
		Submit: Submit{
			Submitter: "log",
			Timeout:   10 * time.Second,
		},
		Form: Form{
			ShowPassword:  false,
			DisplayErrors: display,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// ErrorDisplay converts the display_errors table for the form package.
func (c *Config) ErrorDisplay() form.ErrorDisplay {
	d := form.ErrorDisplay{}
	for name, shown := range c.Form.DisplayErrors {
		d[signup.Field(name)] = shown
	}
	return d
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Submit.Submitter == "" {
		return errors.New("config: submit.submitter cannot be empty")
	}
	if c.Submit.Submitter == "http" && c.Submit.Endpoint == "" {
		return errors.New("config: submit.endpoint is required for the http submitter")
	}
	if c.Submit.Timeout <= 0 {
		return fmt.Errorf("config: submit.timeout must be positive, got %v", c.Submit.Timeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	var unknown []string
	for name := range c.Form.DisplayErrors {
		if !signup.Field(name).Known() {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("config: form.display_errors has unknown fields: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// envOverrides lists the environment variables read by ApplyEnv.
type envOverrides struct {
	Submitter string        `env:"SIGNUP_SUBMITTER"`
	Endpoint  string        `env:"SIGNUP_ENDPOINT"`
	Timeout   time.Duration `env:"SIGNUP_TIMEOUT"`
	LogFile   string        `env:"SIGNUP_LOG_FILE"`
	LogLevel  string        `env:"SIGNUP_LOG_LEVEL"`
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: SIGNUP_SUBMITTER, SIGNUP_ENDPOINT, SIGNUP_TIMEOUT,
// SIGNUP_LOG_FILE, SIGNUP_LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: reading environment: %w", err)
	}
	if o.Submitter != "" {
		c.Submit.Submitter = o.Submitter
	}
	if o.Endpoint != "" {
		c.Submit.Endpoint = o.Endpoint
	}
	if o.Timeout != 0 {
		c.Submit.Timeout = o.Timeout
	}
	if o.LogFile != "" {
		c.Log.File = o.LogFile
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Submit *rawSubmit `yaml:"submit"`
	Form   *rawForm   `yaml:"form"`
	Log    *rawLog    `yaml:"log"`
}

type rawSubmit struct {
	Submitter *string        `yaml:"submitter"`
	Endpoint  *string        `yaml:"endpoint"`
	Timeout   *time.Duration `yaml:"timeout"`
}

type rawForm struct {
	ShowPassword  *bool           `yaml:"show_password"`
	DisplayErrors map[string]bool `yaml:"display_errors"`
}

type rawLog struct {
	File  *string `yaml:"file"`
	Level *string `yaml:"level"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
// display_errors entries are merged per field.
func (c *Config) merge(layer *rawConfig) {
	if layer.Submit != nil {
		if layer.Submit.Submitter != nil {
			c.Submit.Submitter = *layer.Submit.Submitter
		}
		if layer.Submit.Endpoint != nil {
			c.Submit.Endpoint = *layer.Submit.Endpoint
		}
		if layer.Submit.Timeout != nil {
			c.Submit.Timeout = *layer.Submit.Timeout
		}
	}
	if layer.Form != nil {
		if layer.Form.ShowPassword != nil {
			c.Form.ShowPassword = *layer.Form.ShowPassword
		}
		for name, shown := range layer.Form.DisplayErrors {
			c.Form.DisplayErrors[name] = shown
		}
	}
	if layer.Log != nil {
		if layer.Log.File != nil {
			c.Log.File = *layer.Log.File
		}
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
	}
}
