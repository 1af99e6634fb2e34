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

package service

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/warden/internal/commands/shared"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

func newStartCommand() *cobra.Command {
	var (
		flags      endpointFlags
		foreground bool
		logFile    string
		timeout    time.Duration
		runAs      string
		runGroup   string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the warden service",
		Long: `Start the warden service in the background.

By default the service detaches, writes a PID file, and sends its
output to a log file. Use --foreground to serve in the current
terminal (for systemd and containers).

Starting over an already-running instance fails; the existing
instance keeps the socket.`,
		Example: `  # Start in background
  warden service start

  # Start in foreground (for systemd/docker)
  warden service start --foreground

  # Start with a custom socket path
  warden service start --socket /tmp/warden.sock

  # Start with a TCP listener
  warden service start --tcp localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if logFile != "" {
				cfg.Service.LogFile = logFile
			}
			if timeout > 0 {
				cfg.Service.StartTimeout = timeout
			}
			if runAs != "" {
				cfg.Service.User = runAs
			}
			if runGroup != "" {
				cfg.Service.Group = runGroup
			}

			svc, err := buildService(cfg, !foreground, false)
			if err != nil {
				return err
			}

			err = svc.Start()
			switch {
			case err == nil:
				if !foreground {
					fmt.Println(shared.RenderOK(fmt.Sprintf("%s started (%s)", svc.Name(), svc.Config().Target())))
				}
				return nil
			case errors.Is(err, wardenerrors.ErrAlreadyRunning):
				fmt.Println(shared.RenderWarn(err.Error()))
				return &shared.ExitError{Code: shared.ExitAlreadyRunning, Message: "start skipped", Cause: err}
			default:
				return err
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (no detach)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file for the detached instance")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Start confirmation timeout (default 5s)")
	cmd.Flags().StringVar(&runAs, "user", "", "Drop privileges to this user before serving")
	cmd.Flags().StringVar(&runGroup, "group", "", "Drop privileges to this group before serving")

	return cmd
}

// splitHostPort parses a --tcp flag value into the config selector.
func splitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid TCP address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return host, uint16(port), nil
}
