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
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/warden/internal/commands/shared"
)

func newSendCommand() *cobra.Command {
	var flags endpointFlags

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send one request to the running service",
		Long: `Send a single request line to the running service and print its
response. Each invocation uses a fresh connection.`,
		Example: `  # Ask the built-in text service to shout
  warden service send "upper hello world"

  # Multiple words form one request line
  warden service send reverse stressed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, true, false)
			if err != nil {
				return err
			}

			resp, err := svc.Send(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newPingCommand() *cobra.Command {
	var flags endpointFlags

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check if the service is reachable",
		Long:  `Send the reserved ping to the running service and report whether it answered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, true, false)
			if err != nil {
				return err
			}

			if err := svc.Ping(); err != nil {
				return err
			}
			fmt.Println(shared.RenderOK("pong"))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
