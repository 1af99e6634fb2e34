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

package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

const (
	// StopTimeout is how long Stop waits after SIGTERM before either
	// escalating to SIGKILL or reporting failure.
	StopTimeout = 2 * time.Second

	// PollInterval is the predicate re-check interval used by the
	// stop- and start-confirmation polls.
	PollInterval = 100 * time.Millisecond
)

// IsRunning probes the process with signal 0. Only "no such process"
// counts as dead: EPERM means the process exists but belongs to someone
// else, which is still alive from our perspective.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return !errors.Is(err, unix.ESRCH)
}

// SendSignal sends a signal to the given process.
func SendSignal(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("send signal %v to process %d: %w", sig, pid, err)
	}
	return nil
}

// WaitForExit polls until the process disappears or the timeout elapses.
func WaitForExit(pid int, timeout time.Duration) bool {
	return WaitUntil(timeout, PollInterval, func() bool {
		return !IsRunning(pid)
	})
}

// StopProcess runs the termination escalation against a PID with the
// default grace period.
func StopProcess(pid int, force bool) error {
	return StopProcessGrace(pid, force, StopTimeout)
}

// StopProcessGrace is StopProcess with an explicit grace period:
// SIGTERM, a bounded poll for death, and, when force is set, SIGKILL
// followed by one more poll. A process that survives the whole
// sequence yields ErrStopFailed. A non-positive grace means the
// default.
func StopProcessGrace(pid int, force bool, grace time.Duration) error {
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to stop current process (pid %d)", pid)
	}
	if grace <= 0 {
		grace = StopTimeout
	}

	if err := SendSignal(pid, syscall.SIGTERM); err != nil {
		return err
	}
	if WaitForExit(pid, grace) {
		return nil
	}

	if !force {
		return fmt.Errorf("%w: pid %d still alive after %v", wardenerrors.ErrStopFailed, pid, grace)
	}

	if err := SendSignal(pid, syscall.SIGKILL); err != nil {
		return err
	}
	if WaitForExit(pid, grace) {
		return nil
	}
	return fmt.Errorf("%w: pid %d survived SIGKILL", wardenerrors.ErrStopFailed, pid)
}
