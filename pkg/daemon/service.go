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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/tombee/warden/internal/lifecycle"
	"github.com/tombee/warden/internal/log"
	"github.com/tombee/warden/internal/transport"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// HandleFunc answers one control request. It receives the request line
// with its terminator stripped and the live connection, and returns the
// response body; the controller frames and writes it. A handler that
// needs streaming I/O may use the connection directly and return "".
type HandleFunc func(msg string, conn net.Conn) (string, error)

// SetupFunc runs once in the serving process before the socket binds.
type SetupFunc func(s *Service) error

// TeardownFunc runs once when the serving process shuts down.
type TeardownFunc func(s *Service)

// Service is the top-level controller: it composes the process
// supervisor, the socket transport, and the control protocol into the
// daemon lifecycle state machine.
type Service struct {
	name     string
	safeName string
	cfg      Config
	logger   *slog.Logger
	journal  *lifecycle.Journal

	onSetup    SetupFunc
	onTeardown TeardownFunc
	onHandle   HandleFunc

	mu           sync.Mutex
	listener     net.Listener
	shuttingDown bool
	teardownOnce sync.Once
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithLogger replaces the environment-derived logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithJournal enables the lifecycle journal at the given path.
func WithJournal(path string) Option {
	return func(s *Service) {
		s.journal = lifecycle.NewJournal(path, s.name)
	}
}

// New creates a service controller. The name is sanitized into a
// safe identity used for default PID-file and socket paths.
func New(name string, cfg Config, opts ...Option) (*Service, error) {
	if name == "" {
		return nil, errors.New("daemon: service name required")
	}
	if cfg.SocketPath != "" {
		// The selectors are mutually exclusive; the socket path wins.
		cfg.SetSocketPath(cfg.SocketPath)
	}
	if cfg.PIDPath == "" {
		cfg.PIDPath = DefaultPIDPath(name)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogPath(name)
	}

	s := &Service{
		name:     name,
		safeName: SafeName(name),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.FromEnv()).With(log.String(log.ServiceKey, s.name))
	}
	return s, nil
}

// Name returns the service display name.
func (s *Service) Name() string {
	return s.name
}

// Config returns a copy of the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Logger returns the service logger, for use inside hooks.
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// SetOnSetup installs the setup hook.
func (s *Service) SetOnSetup(fn SetupFunc) {
	s.onSetup = fn
}

// SetOnTeardown installs the teardown hook.
func (s *Service) SetOnTeardown(fn TeardownFunc) {
	s.onTeardown = fn
}

// SetOnHandle installs the request handler. A handler is mandatory
// before the accept loop may run.
func (s *Service) SetOnHandle(fn HandleFunc) {
	s.onHandle = fn
}

// Start brings the service up. With Daemonize unset it serves in the
// calling process and does not return until shut down. With Daemonize
// set it verifies no instance is already alive, detaches a child, and
// blocks until the child is confirmed alive; the detached child takes
// the serving path and never returns from Start.
func (s *Service) Start() error {
	if s.onHandle == nil {
		return errors.New("daemon: no handler installed; call SetOnHandle before Start")
	}

	if !s.cfg.Daemonize {
		return s.serve()
	}
	if inDaemonChild() {
		return s.runChild()
	}
	return s.launchDetached()
}

// Stop terminates the recorded instance, escalating from SIGTERM to
// SIGKILL when Force is configured. Stopping a stopped service is not
// an error.
func (s *Service) Stop() error {
	pf := s.pidFile()
	pid, alive := pf.Alive()
	err := lifecycle.StopGrace(pf, s.cfg.Force, s.cfg.StopTimeout, s.name, s.logger)
	if alive {
		if err != nil {
			_ = s.journal.StopFailure(pid, err)
		} else {
			_ = s.journal.Stop(pid, s.cfg.Force)
		}
	}
	return err
}

// Restart stops the recorded instance, then starts a new one. The only
// ordering guarantee is stop-before-start.
func (s *Service) Restart() error {
	if err := s.Stop(); err != nil {
		return err
	}
	return s.Start()
}

// Shutdown is the programmatic equivalent of a termination signal: it
// runs the teardown hook and closes the listener, unwinding a serving
// Start call. Safe to call from another goroutine, and idempotent.
func (s *Service) Shutdown() {
	s.mu.Lock()
	s.shuttingDown = true
	ln := s.listener
	s.mu.Unlock()

	s.runTeardown()
	if ln != nil {
		_ = ln.Close()
	}
}

// serve is the common serving path for foreground mode and the
// detached child: drop privileges, run setup, trap signals, bind the
// transport, and enter the accept loop.
func (s *Service) serve() error {
	if err := lifecycle.DropPrivileges(s.cfg.User, s.cfg.Group); err != nil {
		return err
	}

	if err := s.runSetup(); err != nil {
		return fmt.Errorf("setup hook: %w", err)
	}
	s.trapTerminationSignals()

	ln, err := transport.Listen(s.transportOptions(), s.logger)
	if err != nil {
		return err
	}
	defer ln.Close()

	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return nil
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("listening on control socket",
		log.String(log.AddrKey, s.cfg.Target()))

	return s.acceptLoop(ln)
}

func (s *Service) transportOptions() transport.Options {
	return transport.Options{
		SocketPath:   s.cfg.SocketPath,
		Addr:         s.cfg.Addr(),
		SocketMode:   s.cfg.SocketMode,
		Owner:        s.cfg.User,
		Group:        s.cfg.Group,
		ProbeTimeout: s.cfg.ProbeTimeout,
	}
}

func (s *Service) pidFile() *lifecycle.PIDFile {
	return lifecycle.NewPIDFile(s.cfg.PIDPath)
}

func (s *Service) runSetup() error {
	if s.onSetup == nil {
		return nil
	}
	return s.onSetup(s)
}

func (s *Service) runTeardown() {
	s.teardownOnce.Do(func() {
		if s.onTeardown != nil {
			s.onTeardown(s)
		}
	})
}

func (s *Service) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

// alreadyRunning wraps ErrAlreadyRunning with the live PID a start
// attempt found.
func alreadyRunning(pid int) error {
	return fmt.Errorf("%w (pid %d)", wardenerrors.ErrAlreadyRunning, pid)
}
