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

// Package transport opens the control-socket endpoints: a Unix domain
// or TCP listener on the server side, and the matching client dialer.
// Unix listeners reclaim stale socket paths left behind by dead
// processes after a direct liveness probe comes back negative.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tombee/warden/internal/log"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

const (
	// DefaultSocketMode is applied to Unix sockets when configuration
	// does not say otherwise.
	DefaultSocketMode os.FileMode = 0660

	// DefaultProbeTimeout bounds the connect-and-ping probe run against
	// an in-use socket path before it is declared stale. The exact
	// value is a latency tunable, not a contract.
	DefaultProbeTimeout = 5 * time.Second
)

// Options selects and configures the control endpoint. SocketPath and
// Addr are mutually exclusive; SocketPath wins when both are set.
type Options struct {
	// SocketPath is the Unix domain socket path.
	SocketPath string

	// Addr is the TCP "host:port" address used when SocketPath is empty.
	Addr string

	// SocketMode is the permission bits applied to the socket path.
	// Zero means DefaultSocketMode. Meaningless for TCP.
	SocketMode os.FileMode

	// Owner and Group name the socket file's owner. An empty Group
	// falls back to the owner's primary group. Meaningless for TCP.
	Owner string
	Group string

	// ProbeTimeout bounds the stale-socket liveness probe. Zero means
	// DefaultProbeTimeout.
	ProbeTimeout time.Duration
}

func (o Options) target() string {
	if o.SocketPath != "" {
		return o.SocketPath
	}
	return o.Addr
}

func (o Options) probeTimeout() time.Duration {
	if o.ProbeTimeout > 0 {
		return o.ProbeTimeout
	}
	return DefaultProbeTimeout
}

// Listen binds the configured endpoint and returns the listener. The
// caller owns the listener and must close it on every exit path.
func Listen(opts Options, logger *slog.Logger) (net.Listener, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.SocketPath != "" {
		return listenUnix(opts, logger)
	}
	return listenTCP(opts)
}

func listenUnix(opts Options, logger *slog.Logger) (net.Listener, error) {
	path := opts.SocketPath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, mapPermission(filepath.Dir(path), err, "create socket directory")
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, mapPermission(path, err, "bind unix socket")
		}

		// Address in use: probe the existing path. A live peer answers
		// pong and keeps the address; anything else is a stale socket.
		if PeerAlive(path, opts.probeTimeout()) {
			return nil, fmt.Errorf("%w: %s", wardenerrors.ErrSocketInUse, path)
		}

		logger.Warn("reclaiming stale socket",
			log.String(log.AddrKey, path))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		ln, err = net.Listen("unix", path)
		if err != nil {
			return nil, mapPermission(path, err, "rebind unix socket")
		}
	}

	if err := applySocketPermissions(path, opts); err != nil {
		ln.Close()
		return nil, err
	}
	return ln, nil
}

func listenTCP(opts Options) (net.Listener, error) {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, mapPermission(opts.Addr, err, "bind tcp listener")
	}
	return ln, nil
}

func applySocketPermissions(path string, opts Options) error {
	mode := opts.SocketMode
	if mode == 0 {
		mode = DefaultSocketMode
	}
	if err := os.Chmod(path, mode); err != nil {
		return mapPermission(path, err, "set socket mode")
	}
	return applyOwnership(path, opts.Owner, opts.Group)
}

// mapPermission turns an EACCES/EPERM-class failure into a
// TransportPermissionError naming the target address; other errors are
// wrapped with the operation that failed.
func mapPermission(addr string, err error, op string) error {
	if os.IsPermission(err) || errors.Is(err, syscall.EPERM) {
		return &wardenerrors.TransportPermissionError{Addr: addr, Cause: err}
	}
	return fmt.Errorf("%s %s: %w", op, addr, err)
}
