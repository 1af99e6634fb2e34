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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Spawner starts detached background processes for daemonization. The
// child runs in its own session, loses the controlling terminal, has
// stdin closed, and gets stdout/stderr appended to a log file.
type Spawner struct {
	// Env is the environment of the child process.
	Env []string
}

// NewSpawner creates a spawner inheriting the current environment.
func NewSpawner() *Spawner {
	return &Spawner{
		Env: os.Environ(),
	}
}

// WithEnv appends extra environment variables for the child.
func (s *Spawner) WithEnv(extra ...string) *Spawner {
	s.Env = append(s.Env, extra...)
	return s
}

// SpawnDetached starts the binary detached and returns its PID. The
// caller confirms liveness separately; a successful spawn only means
// the OS accepted the process.
func (s *Spawner) SpawnDetached(binary string, args []string, logPath string) (int, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return 0, fmt.Errorf("create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(binary, args...)
	cmd.Env = s.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	// New session: setsid makes the child a session and process group
	// leader with no controlling terminal. Setpgid must not be combined
	// with it, setpgid on a session leader fails with EPERM.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start detached process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("process started but failed to release: %w", err)
	}
	return pid, nil
}
