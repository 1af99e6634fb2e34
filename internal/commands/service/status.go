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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/warden/internal/commands/shared"
	"github.com/tombee/warden/internal/lifecycle"
	"github.com/tombee/warden/pkg/daemon"
)

// statusReport is the machine-readable form of warden service status.
type statusReport struct {
	Service   string `json:"service"`
	Running   bool   `json:"running"`
	PID       int    `json:"pid,omitempty"`
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	PIDFile   string `json:"pid_file"`
}

func newStatusCommand() *cobra.Command {
	var (
		flags  endpointFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service status",
		Long: `Display whether the warden service is running and reachable.

Running means the PID file names a live process. Reachable means the
control socket answered a ping. The two can disagree: a starting or
wedged instance may be alive but not answering.`,
		Example: `  # Human-readable status
  warden service status

  # Status as JSON
  warden service status --json

  # Extract the PID
  warden service status --json | jq -r '.pid'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			svc, err := buildService(cfg, true, false)
			if err != nil {
				return err
			}

			report := gatherStatus(svc)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			printStatus(report)
			if !report.Running {
				return &shared.ExitError{
					Code:    shared.ExitNotRunning,
					Message: fmt.Sprintf("%s is not running", report.Service),
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output status as JSON")

	return cmd
}

func gatherStatus(svc *daemon.Service) statusReport {
	cfg := svc.Config()
	report := statusReport{
		Service:  svc.Name(),
		Endpoint: cfg.Target(),
		PIDFile:  cfg.PIDPath,
	}

	pf := lifecycle.NewPIDFile(cfg.PIDPath)
	if pid, alive := pf.Alive(); alive {
		report.Running = true
		report.PID = pid
	}
	report.Reachable = svc.Ping() == nil
	return report
}

func printStatus(report statusReport) {
	fmt.Println(shared.Bold.Render(report.Service))
	fmt.Printf("  %s %s\n", shared.RenderLabel("endpoint:"), report.Endpoint)
	fmt.Printf("  %s %s\n", shared.RenderLabel("pid file:"), report.PIDFile)

	if report.Running {
		fmt.Printf("  %s %s\n", shared.RenderLabel("process: "), shared.RenderStatus(true, fmt.Sprintf("RUNNING pid %d", report.PID)))
	} else {
		fmt.Printf("  %s %s\n", shared.RenderLabel("process: "), shared.RenderStatus(false, "STOPPED"))
	}
	if report.Reachable {
		fmt.Printf("  %s %s\n", shared.RenderLabel("control: "), shared.RenderStatus(true, "REACHABLE"))
	} else {
		fmt.Printf("  %s %s\n", shared.RenderLabel("control: "), shared.RenderStatus(false, "UNREACHABLE"))
	}
}
