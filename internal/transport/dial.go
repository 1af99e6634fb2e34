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
	"net"
	"time"
)

// DialTimeout bounds client connection attempts against the control
// endpoint.
const DialTimeout = 5 * time.Second

// Dial opens a client connection using the same selector logic as
// Listen: Unix socket when SocketPath is set, TCP otherwise. Permission
// failures map to TransportPermissionError like the server side.
func Dial(opts Options) (net.Conn, error) {
	network := "tcp"
	if opts.SocketPath != "" {
		network = "unix"
	}
	conn, err := net.DialTimeout(network, opts.target(), DialTimeout)
	if err != nil {
		return nil, mapPermission(opts.target(), err, "dial control endpoint")
	}
	return conn, nil
}
