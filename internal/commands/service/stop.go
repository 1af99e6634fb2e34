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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/warden/internal/commands/shared"
)

func newStopCommand() *cobra.Command {
	var (
		flags   endpointFlags
		force   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the warden service",
		Long: `Stop the running warden service.

The instance recorded in the PID file receives SIGTERM and gets a
grace period to exit. With --force, a survivor is killed with SIGKILL.
Stopping a service that is not running succeeds without doing
anything.`,
		Example: `  # Graceful stop
  warden service stop

  # Escalate to SIGKILL if SIGTERM is ignored
  warden service stop --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Service.StopTimeout = timeout
			}
			svc, err := buildService(cfg, true, force)
			if err != nil {
				return err
			}
			if err := svc.Stop(); err != nil {
				return err
			}
			fmt.Println(shared.RenderOK(fmt.Sprintf("%s stopped", svc.Name())))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "SIGKILL the process if it survives SIGTERM")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Grace period after SIGTERM (default 2s)")

	return cmd
}

func newRestartCommand() *cobra.Command {
	var (
		flags endpointFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the warden service",
		Long: `Stop the running warden service, then start a new instance.

The stop completes before the start begins; there is no overlap
between the old and new instance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, true, force)
			if err != nil {
				return err
			}
			if err := svc.Restart(); err != nil {
				return err
			}
			fmt.Println(shared.RenderOK(fmt.Sprintf("%s restarted (%s)", svc.Name(), svc.Config().Target())))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "SIGKILL the old instance if it survives SIGTERM")

	return cmd
}
