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

package transport

import (
	"bufio"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tombee/warden/internal/protocol"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

func TestListenUnix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.sock")

	ln, err := Listen(Options{SocketPath: path}, nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s) error = %v", path, err)
	}
	if mode := info.Mode() & os.ModePerm; mode != DefaultSocketMode {
		t.Errorf("socket mode = %04o, want %04o", mode, DefaultSocketMode)
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}

func TestListenUnixCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "svc.sock")

	ln, err := Listen(Options{SocketPath: path}, nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ln.Close()
}

func TestListenUnixCustomMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tight.sock")

	ln, err := Listen(Options{SocketPath: path, SocketMode: 0600}, nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode() & os.ModePerm; mode != 0600 {
		t.Errorf("socket mode = %04o, want 0600", mode)
	}
}

func TestListenReclaimsStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")

	// Bind and close without unlinking, the way a SIGKILLed process
	// leaves the path behind.
	first, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("first bind: %v", err)
	}
	if ul, ok := first.(*net.UnixListener); ok {
		ul.SetUnlinkOnClose(false)
	}
	first.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stale socket file missing: %v", err)
	}

	ln, err := Listen(Options{SocketPath: path, ProbeTimeout: 500 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("Listen() over stale socket error = %v", err)
	}
	defer ln.Close()

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial reclaimed socket: %v", err)
	}
	conn.Close()
}

func TestListenRefusesLivePeer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.sock")

	first, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("first bind: %v", err)
	}
	defer first.Close()

	// Answer the reclamation probe for the duration of the test.
	go func() {
		for {
			conn, err := first.Accept()
			if err != nil {
				return
			}
			line, err := protocol.ReadFrame(bufio.NewReader(conn))
			if err == nil && protocol.IsPing(line) {
				_ = protocol.WriteFrame(conn, protocol.Pong)
			}
			conn.Close()
		}
	}()

	_, err = Listen(Options{SocketPath: path, ProbeTimeout: 2 * time.Second}, nil)
	if !errors.Is(err, wardenerrors.ErrSocketInUse) {
		t.Fatalf("Listen() error = %v, want ErrSocketInUse", err)
	}

	// The live peer's socket must not have been unlinked.
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("live socket was removed: %v", statErr)
	}
}

func TestListenTCP(t *testing.T) {
	ln, err := Listen(Options{Addr: "127.0.0.1:0"}, nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}

func TestPeerAliveNoSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sock")
	if PeerAlive(path, 200*time.Millisecond) {
		t.Error("PeerAlive() = true for a missing socket")
	}
}

func TestPeerAliveSilentPeer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mute.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer ln.Close()
	go func() {
		// Accept but never answer.
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	if PeerAlive(path, 300*time.Millisecond) {
		t.Error("PeerAlive() = true for a peer that never answers")
	}
}

func TestDialUnix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.sock")

	ln, err := Listen(Options{SocketPath: path}, nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	conn, err := Dial(Options{SocketPath: path})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Close()
}
