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
	"os"
	"path/filepath"
	"unicode"
)

// SafeName strips leading digits and every non-alphanumeric character
// from a service name, so it satisfies OS username and path
// constraints. An empty result falls back to "service".
func SafeName(name string) string {
	runes := []rune(name)
	start := 0
	for start < len(runes) && unicode.IsDigit(runes[start]) {
		start++
	}

	out := make([]rune, 0, len(runes)-start)
	for _, r := range runes[start:] {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "service"
	}
	return string(out)
}

// runtimeStateDir returns the per-service runtime-state directory used
// for default PID file, socket, and log paths: XDG_RUNTIME_DIR when
// available, then ~/.local/state, then /tmp.
func runtimeStateDir(safeName string) string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, safeName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", safeName)
	}
	return filepath.Join(os.TempDir(), safeName)
}

// DefaultPIDPath returns the PID file location for a service name when
// configuration does not override it.
func DefaultPIDPath(name string) string {
	safe := SafeName(name)
	return filepath.Join(runtimeStateDir(safe), safe+".pid")
}

// DefaultSocketPath returns the Unix socket location for a service name
// when configuration does not override it.
func DefaultSocketPath(name string) string {
	safe := SafeName(name)
	return filepath.Join(runtimeStateDir(safe), safe+".sock")
}

// DefaultLogPath returns where a detached instance sends its output
// when configuration does not override it.
func DefaultLogPath(name string) string {
	safe := SafeName(name)
	return filepath.Join(runtimeStateDir(safe), safe+".log")
}
