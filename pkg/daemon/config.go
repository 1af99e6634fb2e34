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

package daemon

import (
	"net"
	"os"
	"strconv"
	"time"
)

// Config describes where a service listens and how it runs. SocketPath
// and (Host, Port) are mutually exclusive transport selectors; use
// SetSocketPath/SetAddr to switch between them, or leave one zero.
type Config struct {
	// Host and Port select a TCP control endpoint.
	Host string
	Port uint16

	// SocketPath selects a Unix domain control endpoint instead.
	SocketPath string

	// SocketMode is the permission bits applied to the socket path.
	// Zero means 0660. Meaningful only when SocketPath is set.
	SocketMode os.FileMode

	// Daemonize detaches the process on Start. When false, Start runs
	// the server loop in the calling process.
	Daemonize bool

	// PIDPath overrides the default PID file location.
	PIDPath string

	// LogPath overrides where a detached instance sends its output.
	LogPath string

	// Force lets Stop escalate to SIGKILL when the process ignores
	// SIGTERM past the grace ceiling.
	Force bool

	// User and Group, when set, are the identity the server drops to
	// before serving. Group falls back to the user's primary group.
	User  string
	Group string

	// ProbeTimeout bounds the stale-socket reclamation probe.
	// Zero means the transport default (5s).
	ProbeTimeout time.Duration

	// StartTimeout is how long Start waits for a detached instance to
	// be confirmed alive. Zero means 5s.
	StartTimeout time.Duration

	// StopTimeout is the grace period after SIGTERM before Stop gives
	// up or escalates. Zero means the supervisor default (2s).
	StopTimeout time.Duration
}

// DefaultStartTimeout is the start-confirmation ceiling used when the
// config does not set one.
const DefaultStartTimeout = 5 * time.Second

// SetSocketPath selects a Unix domain endpoint, clearing any TCP
// selector.
func (c *Config) SetSocketPath(path string) {
	c.SocketPath = path
	c.Host = ""
	c.Port = 0
}

// SetAddr selects a TCP endpoint, clearing any Unix socket selector.
func (c *Config) SetAddr(host string, port uint16) {
	c.Host = host
	c.Port = port
	c.SocketPath = ""
}

// Addr returns the TCP "host:port" form of the selector. Empty when a
// socket path is configured.
func (c Config) Addr() string {
	if c.SocketPath != "" {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Target returns the configured control endpoint for display: the
// socket path, or the TCP address.
func (c Config) Target() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	return c.Addr()
}

func (c Config) startTimeout() time.Duration {
	if c.StartTimeout > 0 {
		return c.StartTimeout
	}
	return DefaultStartTimeout
}
