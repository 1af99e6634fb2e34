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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestSpawner_SpawnDetached(t *testing.T) {
	if os.Getenv("SKIP_SPAWN_TESTS") != "" {
		t.Skip("Skipping spawn tests (SKIP_SPAWN_TESTS is set)")
	}

	tmpDir := t.TempDir()

	t.Run("spawns detached process and captures output", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "spawn.log")
		spawner := NewSpawner()

		pid, err := spawner.SpawnDetached("sh", []string{"-c", "echo 'detached output'; sleep 1"}, logPath)
		if err != nil {
			t.Fatalf("SpawnDetached() error = %v", err)
		}

		if !IsRunning(pid) {
			t.Error("spawned process is not running")
		}

		if !WaitForExit(pid, 5*time.Second) {
			syscall.Kill(pid, syscall.SIGKILL)
			t.Fatal("spawned process never exited")
		}

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if !strings.Contains(string(content), "detached output") {
			t.Errorf("log file missing expected output: %s", content)
		}
	})

	t.Run("creates log directory with restrictive mode", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "nested", "dir", "spawn.log")
		spawner := NewSpawner()

		pid, err := spawner.SpawnDetached("sh", []string{"-c", "true"}, logPath)
		if err != nil {
			t.Fatalf("SpawnDetached() error = %v", err)
		}
		defer syscall.Kill(pid, syscall.SIGKILL)

		info, err := os.Stat(filepath.Dir(logPath))
		if err != nil {
			t.Fatalf("log directory not created: %v", err)
		}
		if mode := info.Mode() & os.ModePerm; mode != 0700 {
			t.Errorf("log directory mode = %04o, want 0700", mode)
		}
	})

	t.Run("child sees extra environment", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "env.log")
		spawner := NewSpawner().WithEnv("SPAWN_MARKER=yes")

		pid, err := spawner.SpawnDetached("sh", []string{"-c", "echo \"marker=$SPAWN_MARKER\""}, logPath)
		if err != nil {
			t.Fatalf("SpawnDetached() error = %v", err)
		}

		if !WaitForExit(pid, 5*time.Second) {
			syscall.Kill(pid, syscall.SIGKILL)
			t.Fatal("spawned process never exited")
		}

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if !strings.Contains(string(content), "marker=yes") {
			t.Errorf("child did not see extra env: %s", content)
		}
	})

	t.Run("child becomes a session leader", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "sid.log")
		spawner := NewSpawner()

		pid, err := spawner.SpawnDetached("sh", []string{"-c", "ps -o sid= -p $$"}, logPath)
		if err != nil {
			t.Fatalf("SpawnDetached() error = %v", err)
		}

		if !WaitForExit(pid, 5*time.Second) {
			syscall.Kill(pid, syscall.SIGKILL)
			t.Fatal("spawned process never exited")
		}

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if sid := strings.TrimSpace(string(content)); sid != strconv.Itoa(pid) {
			t.Errorf("child session id = %q, want %d (own pid)", sid, pid)
		}
	})

	t.Run("missing binary fails", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "missing.log")
		_, err := NewSpawner().SpawnDetached("/nonexistent/binary", nil, logPath)
		if err == nil {
			t.Error("SpawnDetached() with missing binary = nil, want error")
		}
	})
}
