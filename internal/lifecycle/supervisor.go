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

package lifecycle

import (
	"log/slog"
	"time"

	"github.com/tombee/warden/internal/log"
)

// Stop terminates the instance recorded in the PID file with the
// default grace period.
func Stop(pf *PIDFile, force bool, name string, logger *slog.Logger) error {
	return StopGrace(pf, force, 0, name, logger)
}

// StopGrace terminates the instance recorded in the PID file, waiting
// up to grace after SIGTERM. Stopping a service that is not running is
// idempotent: it logs and returns nil.
func StopGrace(pf *PIDFile, force bool, grace time.Duration, name string, logger *slog.Logger) error {
	pid, alive := pf.Alive()
	if !alive {
		logger.Info("service not running, nothing to stop",
			log.String("service", name),
			log.String("pid_file", pf.Path()))
		return nil
	}

	logger.Info("stopping service",
		log.String("service", name),
		log.Int("pid", pid),
		log.Bool("force", force))

	if err := StopProcessGrace(pid, force, grace); err != nil {
		return err
	}

	logger.Info("service stopped",
		log.String("service", name),
		log.Int("pid", pid))
	return nil
}
