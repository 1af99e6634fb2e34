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

package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/tombee/warden/internal/protocol"
	"github.com/tombee/warden/internal/transport"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// Send delivers one request line to the running instance and returns
// its response with the terminator stripped. Each call uses a fresh
// connection; the endpoint comes from the service configuration.
func (s *Service) Send(msg string) (string, error) {
	if s.cfg.Daemonize {
		if _, alive := s.pidFile().Alive(); !alive {
			return "", fmt.Errorf("%w: %s", wardenerrors.ErrNotRunning, s.name)
		}
	}

	conn, err := transport.Dial(s.transportOptions())
	if err != nil {
		return "", mapDialError(s.name, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(transport.DialTimeout)); err != nil {
		return "", fmt.Errorf("%w: %v", wardenerrors.ErrConnection, err)
	}
	if err := protocol.WriteFrame(conn, msg); err != nil {
		return "", fmt.Errorf("%w: write request: %v", wardenerrors.ErrConnection, err)
	}

	resp, err := protocol.ReadFrame(bufio.NewReader(conn))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", wardenerrors.ErrConnection, err)
	}
	return resp, nil
}

// Ping asks the running instance for a liveness response.
func (s *Service) Ping() error {
	resp, err := s.Send(protocol.Ping)
	if err != nil {
		return err
	}
	if resp != protocol.Pong {
		return fmt.Errorf("%w: unexpected ping response %q", wardenerrors.ErrConnection, resp)
	}
	return nil
}

// mapDialError distinguishes "nothing is listening" from genuine
// transport faults. A missing socket file or a refused connection both
// mean the service is down.
func mapDialError(name string, err error) error {
	var permErr *wardenerrors.TransportPermissionError
	if errors.As(err, &permErr) {
		return err
	}
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENOENT) {
		return fmt.Errorf("%w: %s: %v", wardenerrors.ErrNotRunning, name, err)
	}
	return fmt.Errorf("%w: %v", wardenerrors.ErrConnection, err)
}
