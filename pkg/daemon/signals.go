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

	"golang.org/x/sys/unix"

	"github.com/tombee/warden/internal/log"
)

// signalExitStatus is the process exit status after a graceful,
// signal-driven shutdown.
const signalExitStatus = 130

// trapTerminationSignals installs the interrupt/quit/terminate handler:
// teardown, then exit. A signal arriving mid-connection may abandon
// that connection; cleanup is best effort.
func (s *Service) trapTerminationSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		s.logger.Info("received signal, shutting down",
			log.String("signal", sig.String()))
		s.runTeardown()

		s.mu.Lock()
		ln := s.listener
		s.mu.Unlock()
		if ln != nil {
			_ = ln.Close()
		}
		os.Exit(signalExitStatus)
	}()
}

// watchLogReopen reopens the log file on SIGUSR1 so external rotation
// can move the old one aside.
func (s *Service) watchLogReopen(logPath string) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		for range ch {
			if err := reopenOutput(logPath); err != nil {
				s.logger.Error("log reopen failed",
					log.String("path", logPath),
					log.Error(err))
				continue
			}
			s.logger.Info("log file reopened",
				log.String("path", logPath))
		}
	}()
}

// reopenOutput points stdout and stderr at a fresh handle on the log
// path. The detached child's streams were redirected there at spawn
// time; this renews the underlying file descriptors.
func reopenOutput(logPath string) error {
	handle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer handle.Close()

	fd := int(handle.Fd())
	if err := unix.Dup2(fd, int(os.Stdout.Fd())); err != nil {
		return fmt.Errorf("redirect stdout: %w", err)
	}
	if err := unix.Dup2(fd, int(os.Stderr.Fd())); err != nil {
		return fmt.Errorf("redirect stderr: %w", err)
	}
	return nil
}
