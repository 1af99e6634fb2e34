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
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

func TestStop(t *testing.T) {
	nop := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no PID file is not an error", func(t *testing.T) {
		pf := NewPIDFile(filepath.Join(t.TempDir(), "absent.pid"))
		if err := Stop(pf, false, "idled", nop); err != nil {
			t.Errorf("Stop() error = %v, want nil", err)
		}
	})

	t.Run("stale PID record is not an error", func(t *testing.T) {
		pf := NewPIDFile(filepath.Join(t.TempDir(), "stale.pid"))
		if err := pf.Write(4194000); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := Stop(pf, false, "staled", nop); err != nil {
			t.Errorf("Stop() error = %v, want nil", err)
		}
	})

	t.Run("stops a recorded child", func(t *testing.T) {
		cmd := exec.Command("sleep", "60")
		if err := cmd.Start(); err != nil {
			t.Fatalf("start child: %v", err)
		}
		pid := cmd.Process.Pid
		go cmd.Wait()

		pf := NewPIDFile(filepath.Join(t.TempDir(), "child.pid"))
		if err := pf.Write(pid); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		if err := Stop(pf, false, "childd", nop); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		if IsRunning(pid) {
			t.Error("child still running after Stop()")
		}
	})
}

func TestDropPrivilegesNoop(t *testing.T) {
	if err := DropPrivileges("", ""); err != nil {
		t.Errorf("DropPrivileges with empty names error = %v", err)
	}
}

func TestDropPrivilegesUnknownUser(t *testing.T) {
	err := DropPrivileges("no-such-user-994821", "")
	if err == nil {
		t.Fatal("DropPrivileges() = nil for unknown user")
	}
	var privErr *wardenerrors.PrivilegeError
	if !errors.As(err, &privErr) {
		t.Fatalf("error %v is not a PrivilegeError", err)
	}
	if privErr.Kind != "user" {
		t.Errorf("Kind = %q, want user", privErr.Kind)
	}
}

func TestDropPrivilegesClearsSupplementaryGroups(t *testing.T) {
	// Re-exec branch: drops privileges, then reports the surviving
	// supplementary groups on stdout.
	if os.Getenv("DROP_GROUPS_HELPER") == "1" {
		if err := DropPrivileges("nobody", ""); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		groups, err := unix.Getgroups()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(groups)
		os.Exit(0)
	}

	if os.Getuid() != 0 {
		t.Skip("requires root to change group ids")
	}
	u, err := user.Lookup("nobody")
	if err != nil {
		t.Skip("no nobody user on this host")
	}

	cmd := exec.Command(os.Args[0], "-test.run", "^TestDropPrivilegesClearsSupplementaryGroups$")
	cmd.Env = append(os.Environ(), "DROP_GROUPS_HELPER=1")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("privilege-drop helper failed: %v", err)
	}

	want := fmt.Sprintf("[%s]", u.Gid)
	if got := strings.TrimSpace(string(out)); got != want {
		t.Errorf("supplementary groups after drop = %s, want %s", got, want)
	}
}
