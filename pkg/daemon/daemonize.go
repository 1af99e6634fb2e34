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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tombee/warden/internal/lifecycle"
	"github.com/tombee/warden/internal/log"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// childEnvVar marks a process as the detached instance. Go cannot fork,
// so detachment re-executes the current binary with this marker set;
// Start in the child routes straight to the serving path.
const childEnvVar = "WARDEN_DAEMON_CHILD"

func inDaemonChild() bool {
	return os.Getenv(childEnvVar) == "1"
}

// launchDetached is the parent half of daemonization: refuse to start
// over a live instance, spawn the detached child, and block until the
// child's liveness record is confirmed or the confirmation poll times
// out.
func (s *Service) launchDetached() error {
	pf := s.pidFile()
	if pid, alive := pf.Alive(); alive {
		_ = s.journal.AlreadyRunning(pid)
		return alreadyRunning(pid)
	}
	if pid, err := pf.Read(); err == nil && pid > 0 {
		s.logger.Warn("PID record names a dead process, taking over",
			log.Int("pid", pid),
			log.String("pid_file", pf.Path()))
		_ = s.journal.StalePID(pid)
		if err := pf.Remove(); err != nil {
			return err
		}
	}
	if err := pf.EnsureWritable(); err != nil {
		return err
	}

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	_ = s.journal.Start("detaching")
	started := time.Now()

	spawner := lifecycle.NewSpawner().WithEnv(childEnvVar + "=1")
	childPID, err := spawner.SpawnDetached(binary, os.Args[1:], s.cfg.LogPath)
	if err != nil {
		_ = s.journal.StartFailure(err)
		return fmt.Errorf("detach service: %w", err)
	}

	s.logger.Info("detached child spawned, waiting for confirmation",
		log.Int("pid", childPID),
		log.String("log_file", s.cfg.LogPath))

	confirmed := lifecycle.WaitUntil(s.cfg.startTimeout(), lifecycle.PollInterval, func() bool {
		_, alive := pf.Alive()
		return alive
	})
	if !confirmed {
		err := fmt.Errorf("%w after %v", wardenerrors.ErrStartTimeout, s.cfg.startTimeout())
		_ = s.journal.StartFailure(err)
		return err
	}

	pid, _ := pf.Alive()
	_ = s.journal.StartSuccess(pid, time.Since(started))
	s.logger.Info("service started",
		log.Int("pid", pid),
		log.Duration("took", time.Since(started).Milliseconds()))
	return nil
}

// runChild finishes detachment inside the spawned instance. The spawn
// already gave it a new session and redirected its streams; what is
// left is the file-creation mask, a stable working directory, the
// liveness record, and the residual signal handlers.
func (s *Service) runChild() error {
	unix.Umask(0)
	if err := os.Chdir("/"); err != nil {
		return fmt.Errorf("chdir to /: %w", err)
	}

	pf := s.pidFile()
	if err := pf.EnsureWritable(); err != nil {
		return err
	}
	if err := pf.Write(os.Getpid()); err != nil {
		return err
	}

	// Detached instances outlive their terminal; hang-ups are noise,
	// SIGUSR1 drives log rotation.
	signal.Ignore(syscall.SIGHUP)
	s.watchLogReopen(s.cfg.LogPath)

	return s.serve()
}
