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

// Package daemon is a reusable control plane for a single-threaded
// daemon. It owns the process lifecycle (start, stop, restart), binds a
// control socket (Unix domain or TCP) on which a caller-supplied
// handler answers line-oriented commands, and provides the client-side
// Send operation that talks to a running instance over the same socket.
//
// Connections are served strictly one at a time, so handlers may touch
// process-local state without locking. The control channel carries no
// authentication or encryption; restrict access with socket permissions.
//
// A minimal service:
//
//	svc, err := daemon.New("echod", daemon.Config{SocketPath: "/tmp/echod.sock"})
//	if err != nil {
//		return err
//	}
//	svc.SetOnHandle(func(msg string, _ net.Conn) (string, error) {
//		return strings.ToUpper(msg), nil
//	})
//	return svc.Start()
package daemon
