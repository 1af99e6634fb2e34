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

// Package protocol defines the control-socket wire format: one plain-text
// line per request and per response, CRLF-terminated, with a reserved
// ping/pong exchange used for liveness probing.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// Terminator ends every outbound frame.
	Terminator = "\r\n"

	// Ping is the reserved liveness request. It is answered with Pong
	// before any application handler runs.
	Ping = "ping"

	// Pong is the reserved liveness response.
	Pong = "pong"

	// PeekSize is how many bytes the server inspects without consuming
	// them before deciding whether a request is the reserved ping.
	PeekSize = 256
)

// WriteFrame writes a single framed message. The message must not contain
// a newline; the terminator is appended here, never by the caller.
func WriteFrame(w io.Writer, msg string) error {
	if strings.ContainsAny(msg, "\r\n") {
		return fmt.Errorf("protocol: message contains line terminator")
	}
	if _, err := io.WriteString(w, msg+Terminator); err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one framed message and strips the trailing terminator.
// Both CRLF and bare LF are accepted on the inbound path.
func ReadFrame(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			// Peer closed without a terminator; treat what arrived
			// as the whole frame.
			return Trim(line), nil
		}
		return "", fmt.Errorf("protocol: read frame: %w", err)
	}
	return Trim(line), nil
}

// Trim strips one trailing line terminator, CRLF or LF.
func Trim(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// IsPing reports whether a peeked request line is the reserved liveness
// token. The input may still carry its terminator.
func IsPing(line string) bool {
	return Trim(line) == Ping
}
