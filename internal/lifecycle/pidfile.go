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
	"path/filepath"
	"strconv"
	"strings"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

var (
	// ErrInvalidPID is returned when the PID file contains non-numeric
	// or non-positive data.
	ErrInvalidPID = errors.New("invalid PID in file")

	// ErrUnsafeDirectory is returned when the PID file parent is
	// world-writable without the sticky bit.
	ErrUnsafeDirectory = errors.New("PID file directory is world-writable")
)

// PIDFile is the plain-text liveness record of a detached instance: the
// decimal process id followed by a newline. A new start overwrites it;
// there is no explicit unlink on exit.
type PIDFile struct {
	path string
}

// NewPIDFile returns a PID file handle for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the filesystem path of the PID file.
func (f *PIDFile) Path() string {
	return f.path
}

// Write persists the given PID, replacing any previous record.
func (f *PIDFile) Write(pid int) error {
	parent := filepath.Dir(f.path)
	if err := verifyDirectorySafety(parent); err != nil {
		return fmt.Errorf("unsafe PID file location: %w", err)
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create PID file directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Read returns the stored PID. A missing file yields os.ErrNotExist; an
// empty file reads as zero with no error, which callers treat as "no
// record".
func (f *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	if pidStr == "" {
		return 0, nil
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPID, pidStr)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}
	return pid, nil
}

// Remove deletes the PID file. Removing an absent file is not an error.
func (f *PIDFile) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// Exists returns true if the PID file exists.
func (f *PIDFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Alive reads the stored PID and probes it with signal 0. It returns
// (0, false) when the file is absent, empty, or names a process that no
// longer exists.
func (f *PIDFile) Alive() (int, bool) {
	pid, err := f.Read()
	if err != nil || pid == 0 {
		return 0, false
	}
	if !IsRunning(pid) {
		return 0, false
	}
	return pid, true
}

// EnsureWritable makes sure the PID file can be written: parent
// directories exist (0755) and the file itself is creatable and
// writable (0644). Permission failures are reported as a
// PathPermissionError naming the path.
func (f *PIDFile) EnsureWritable() error {
	parent := filepath.Dir(f.path)
	if err := os.MkdirAll(parent, 0755); err != nil {
		if os.IsPermission(err) {
			return &wardenerrors.PathPermissionError{Path: parent, Cause: err}
		}
		return fmt.Errorf("create PID file directory: %w", err)
	}

	handle, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsPermission(err) {
			return &wardenerrors.PathPermissionError{Path: f.path, Cause: err}
		}
		return fmt.Errorf("open PID file: %w", err)
	}
	return handle.Close()
}

// verifyDirectorySafety rejects world-writable parents without the
// sticky bit, so an attacker cannot swap a symlink under the PID file.
func verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		// Directory doesn't exist yet; Write will create it.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat directory: %w", err)
	}

	mode := info.Mode()
	if mode&0002 != 0 && mode&os.ModeSticky == 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}
	return nil
}
