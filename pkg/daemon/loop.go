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
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/tombee/warden/internal/log"
	"github.com/tombee/warden/internal/protocol"
)

// ReadTimeout is how long an accepted connection may stay silent before
// it is dropped without reaching the handler.
const ReadTimeout = 2 * time.Second

// acceptLoop serves connections strictly one at a time. Per-connection
// transport errors are logged and the loop continues; only listener
// closure (shutdown) ends it.
func (s *Service) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isShuttingDown() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", log.Error(err))
			continue
		}
		s.handleConn(conn)
	}
}

// handleConn runs one request/response exchange. The connection is
// always closed before the next accept.
func (s *Service) handleConn(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With(log.String(log.ConnIDKey, uuid.NewString()))

	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		logger.Warn("set read deadline failed", log.Error(err))
		return
	}

	peeked, err := peekRequest(conn)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			logger.Warn("connection not ready within read timeout, dropping")
		case errors.Is(err, io.EOF):
			logger.Debug("peer closed connection before sending a request")
		default:
			logger.Warn("peek failed", log.Error(err))
		}
		return
	}

	line := peeked
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i+1]
	}

	// Consume exactly the request line. Bytes a client pipelines behind
	// it stay queued for the handler.
	if _, err := io.ReadFull(conn, make([]byte, len(line))); err != nil {
		logger.Warn("read failed", log.Error(err))
		return
	}

	// The handler owns any further reads on the connection.
	_ = conn.SetReadDeadline(time.Time{})

	msg := protocol.Trim(string(line))

	if msg == protocol.Ping {
		// Reserved liveness exchange: answered here, never dispatched
		// to the handler.
		if err := protocol.WriteFrame(conn, protocol.Pong); err != nil {
			logger.Warn("write pong failed", log.Error(err))
		}
		return
	}

	resp, err := s.onHandle(msg, conn)
	if err != nil {
		logger.Warn("handler failed", log.Error(err))
		return
	}
	if resp == "" {
		return
	}
	if err := protocol.WriteFrame(conn, resp); err != nil {
		logger.Warn("write response failed", log.Error(err))
	}
}

// peekRequest inspects up to protocol.PeekSize bytes without consuming
// them. MSG_PEEK leaves the data queued so the accept path can decide
// between the reserved liveness exchange and handler dispatch, and the
// handler can still read everything the peer sent.
func peekRequest(conn net.Conn) ([]byte, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("connection type %T does not support peeking", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, protocol.PeekSize)
	var (
		n    int
		rerr error
	)
	err = raw.Read(func(fd uintptr) bool {
		n, _, rerr = unix.Recvfrom(int(fd), buf, unix.MSG_PEEK)
		return rerr != unix.EAGAIN
	})
	if err != nil {
		return nil, err
	}
	if rerr != nil {
		return nil, rerr
	}
	if n == 0 {
		return nil, io.EOF
	}
	return buf[:n], nil
}
