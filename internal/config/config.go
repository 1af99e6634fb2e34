// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads warden's YAML configuration. Environment
// variables take precedence over file values, and zero values fall back
// to defaults, so a minimal config file is enough.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// Config is the complete warden configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Log     LogConfig     `yaml:"log"`
}

// ServiceConfig describes the managed service: where it listens, where
// its runtime state lives, and how it runs.
type ServiceConfig struct {
	// Name identifies the service. Used to derive default runtime
	// paths when the explicit ones below are empty.
	Name string `yaml:"name"`

	// Socket is the Unix domain control endpoint. Mutually exclusive
	// with Host/Port; when both are set the socket wins.
	Socket string `yaml:"socket,omitempty"`

	// SocketMode is the permission bits applied to the socket path.
	// Accepts octal strings ("0660") or integers. Zero means 0660.
	SocketMode FileMode `yaml:"socket_mode,omitempty"`

	// Host and Port select a TCP control endpoint instead of a socket.
	Host string `yaml:"host,omitempty"`
	Port uint16 `yaml:"port,omitempty"`

	// PIDFile overrides the default PID file location.
	PIDFile string `yaml:"pid_file,omitempty"`

	// LogFile is where a detached instance sends its output.
	LogFile string `yaml:"log_file,omitempty"`

	// User and Group, when set, are the identity the service drops to
	// before serving.
	User  string `yaml:"user,omitempty"`
	Group string `yaml:"group,omitempty"`

	// ProbeTimeout bounds the stale-socket reclamation probe.
	// Environment: WARDEN_PROBE_TIMEOUT
	// Default: 5s
	ProbeTimeout time.Duration `yaml:"probe_timeout,omitempty"`

	// StartTimeout is how long start waits for a detached instance to
	// be confirmed alive. Default: 5s
	StartTimeout time.Duration `yaml:"start_timeout,omitempty"`

	// StopTimeout is the grace period after SIGTERM before stop gives
	// up or escalates. Default: 2s
	StopTimeout time.Duration `yaml:"stop_timeout,omitempty"`

	// Journal enables the lifecycle event journal at the given path.
	Journal string `yaml:"journal,omitempty"`
}

// LogConfig configures the CLI's own logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:         "warden",
			ProbeTimeout: 5 * time.Second,
			StartTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file, overlays environment
// variables, and validates the result. An empty path loads defaults
// plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, &wardenerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads from the XDG config location when the file exists,
// otherwise returns defaults plus environment.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return Load("")
	}
	return Load(path)
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// applyDefaults fills zero values so minimal config files work.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Service.Name == "" {
		c.Service.Name = defaults.Service.Name
	}
	if c.Service.ProbeTimeout == 0 {
		c.Service.ProbeTimeout = defaults.Service.ProbeTimeout
	}
	if c.Service.StartTimeout == 0 {
		c.Service.StartTimeout = defaults.Service.StartTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("WARDEN_SOCKET"); val != "" {
		c.Service.Socket = val
		c.Service.Host = ""
		c.Service.Port = 0
	}
	if val := os.Getenv("WARDEN_PID_FILE"); val != "" {
		c.Service.PIDFile = val
	}
	if val := os.Getenv("WARDEN_PROBE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Service.ProbeTimeout = d
		}
	}
	if val := os.Getenv("WARDEN_START_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Service.StartTimeout = d
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
}

// Save writes the configuration as YAML, creating parent directories
// as needed. The file is user-only: it can name a privileged identity.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return &wardenerrors.ConfigError{
			Key:    "config_file",
			Reason: "failed to encode configuration",
			Cause:  err,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return &wardenerrors.ConfigError{
			Key:    "config_file",
			Reason: fmt.Sprintf("failed to create directory for %s", path),
			Cause:  err,
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return &wardenerrors.ConfigError{
			Key:    "config_file",
			Reason: fmt.Sprintf("failed to write %s", path),
			Cause:  err,
		}
	}
	return nil
}

// Validate checks the loaded configuration for contradictions.
func (c *Config) Validate() error {
	if c.Service.Socket != "" && (c.Service.Host != "" || c.Service.Port != 0) {
		return &wardenerrors.ConfigError{
			Key:    "service",
			Reason: "socket and host/port are mutually exclusive",
		}
	}
	if c.Service.Host != "" && c.Service.Port == 0 {
		return &wardenerrors.ConfigError{
			Key:    "service.port",
			Reason: "host is set but port is zero",
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &wardenerrors.ConfigError{
			Key:    "log.level",
			Reason: fmt.Sprintf("unknown level %q", c.Log.Level),
		}
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return &wardenerrors.ConfigError{
			Key:    "log.format",
			Reason: fmt.Sprintf("unknown format %q", c.Log.Format),
		}
	}
	return nil
}

// FileMode wraps os.FileMode so YAML can express permission bits as
// octal strings ("0660") as well as plain integers.
type FileMode os.FileMode

// UnmarshalYAML implements yaml.Unmarshaler. The scalar text is parsed
// as octal whether or not it was quoted.
func (m *FileMode) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimPrefix(value.Value, "0o")
	parsed, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return fmt.Errorf("invalid file mode %q: %w", raw, err)
	}
	*m = FileMode(parsed)
	return nil
}

// MarshalYAML renders the mode in the conventional octal form.
func (m FileMode) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("%04o", os.FileMode(m)), nil
}
