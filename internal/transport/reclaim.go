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
	"net"
	"time"

	"github.com/tombee/warden/internal/protocol"
)

// PeerAlive runs the reclamation probe: connect to the socket path,
// send the reserved ping, and wait for pong within the timeout. Only
// an exact pong proves a live peer; every failure mode (refused
// connection, deadline exceeded, wrong reply) means the path is stale.
func PeerAlive(path string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return false
	}
	if err := protocol.WriteFrame(conn, protocol.Ping); err != nil {
		return false
	}
	reply, err := protocol.ReadFrame(bufio.NewReader(conn))
	if err != nil {
		return false
	}
	return reply == protocol.Pong
}
