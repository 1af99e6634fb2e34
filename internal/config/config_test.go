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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Service.Name != "warden" {
		t.Errorf("expected service name 'warden', got %q", cfg.Service.Name)
	}
	if cfg.Service.ProbeTimeout != 5*time.Second {
		t.Errorf("expected probe timeout 5s, got %v", cfg.Service.ProbeTimeout)
	}
	if cfg.Service.StartTimeout != 5*time.Second {
		t.Errorf("expected start timeout 5s, got %v", cfg.Service.StartTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected log format 'text', got %q", cfg.Log.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `service:
  name: echod
  socket: /run/echod/echod.sock
  socket_mode: "0600"
  pid_file: /run/echod/echod.pid
  probe_timeout: 2s
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "echod" {
		t.Errorf("name = %q, want echod", cfg.Service.Name)
	}
	if cfg.Service.Socket != "/run/echod/echod.sock" {
		t.Errorf("socket = %q", cfg.Service.Socket)
	}
	if os.FileMode(cfg.Service.SocketMode) != 0600 {
		t.Errorf("socket_mode = %04o, want 0600", os.FileMode(cfg.Service.SocketMode))
	}
	if cfg.Service.ProbeTimeout != 2*time.Second {
		t.Errorf("probe_timeout = %v, want 2s", cfg.Service.ProbeTimeout)
	}
	// Unset fields fall back to defaults.
	if cfg.Service.StartTimeout != 5*time.Second {
		t.Errorf("start_timeout = %v, want default 5s", cfg.Service.StartTimeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %q/%q, want debug/json", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadMinimalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("service:\n  name: tiny\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "tiny" {
		t.Errorf("name = %q, want tiny", cfg.Service.Name)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want default info", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("Load() with missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WARDEN_SOCKET", "/tmp/override.sock")
	t.Setenv("WARDEN_PROBE_TIMEOUT", "10s")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Socket != "/tmp/override.sock" {
		t.Errorf("socket = %q, want env override", cfg.Service.Socket)
	}
	if cfg.Service.ProbeTimeout != 10*time.Second {
		t.Errorf("probe_timeout = %v, want 10s", cfg.Service.ProbeTimeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want warn (lowercased)", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "socket and host conflict",
			mutate: func(c *Config) {
				c.Service.Socket = "/tmp/x.sock"
				c.Service.Host = "127.0.0.1"
				c.Service.Port = 9000
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "host without port",
			mutate: func(c *Config) {
				c.Service.Host = "127.0.0.1"
			},
			wantErr: "port is zero",
		},
		{
			name: "bad log level",
			mutate: func(c *Config) {
				c.Log.Level = "verbose"
			},
			wantErr: "unknown level",
		},
		{
			name: "bad log format",
			mutate: func(c *Config) {
				c.Log.Format = "xml"
			},
			wantErr: "unknown format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestFileModeUnquoted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("service:\n  name: m\n  socket_mode: 0660\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if os.FileMode(cfg.Service.SocketMode) != 0660 {
		t.Errorf("socket_mode = %04o, want 0660", os.FileMode(cfg.Service.SocketMode))
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Service.Name = "savedd"
	cfg.Service.Socket = "/tmp/savedd.sock"
	cfg.Service.SocketMode = FileMode(0600)
	cfg.Log.Format = "json"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode() & os.ModePerm; mode != 0600 {
		t.Errorf("config file mode = %04o, want 0600", mode)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Service.Name != "savedd" {
		t.Errorf("name = %q, want savedd", loaded.Service.Name)
	}
	if loaded.Service.Socket != "/tmp/savedd.sock" {
		t.Errorf("socket = %q", loaded.Service.Socket)
	}
	if os.FileMode(loaded.Service.SocketMode) != 0600 {
		t.Errorf("socket_mode = %04o, want 0600", os.FileMode(loaded.Service.SocketMode))
	}
	if loaded.Log.Format != "json" {
		t.Errorf("log format = %q, want json", loaded.Log.Format)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != filepath.Join(base, "warden") {
		t.Errorf("ConfigDir() = %q, want %q", dir, filepath.Join(base, "warden"))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
}
