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

package shared

import (
	"errors"
	"fmt"
	"os"

	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// Exit codes for warden commands.
const (
	ExitSuccess        = 0
	ExitFailure        = 1
	ExitNotRunning     = 10
	ExitAlreadyRunning = 11
	ExitStopFailed     = 12
)

// ExitError is an error that carries an exit code.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCodeFor maps the control-plane error kinds onto exit codes, so
// scripts can branch on what went wrong.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, wardenerrors.ErrNotRunning):
		return ExitNotRunning
	case errors.Is(err, wardenerrors.ErrAlreadyRunning):
		return ExitAlreadyRunning
	case errors.Is(err, wardenerrors.ErrStopFailed):
		return ExitStopFailed
	default:
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return ExitFailure
	}
}

// HandleExitError prints the error and exits with its mapped code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err.Error())
	os.Exit(ExitCodeFor(err))
}
