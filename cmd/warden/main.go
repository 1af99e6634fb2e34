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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/warden/internal/commands/service"
	"github.com/tombee/warden/internal/commands/shared"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:   "warden",
		Short: "Run and control line-oriented daemons",
		Long: `warden runs services as background daemons and talks to them over a
line-oriented control socket.

A detached service is tracked through a PID file, answers the reserved
ping on its socket, and is stopped with an escalating SIGTERM/SIGKILL
sequence. The service verbs cover the whole lifecycle; send and ping
speak the control protocol directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(service.NewCommand())
	root.AddCommand(newVersionCommand())

	if err := root.Execute(); err != nil {
		shared.HandleExitError(err)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("warden %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
