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

// Package errors defines the error kinds surfaced by the warden control
// plane. Callers match the sentinel values with errors.Is and extract
// the typed errors with errors.As.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start when a liveness probe
	// against the stored PID says an instance is already up.
	ErrAlreadyRunning = errors.New("service already running")

	// ErrStartTimeout is returned when a detached instance is not
	// confirmed alive before the confirmation poll ceiling.
	ErrStartTimeout = errors.New("timed out waiting for service to start")

	// ErrStopFailed is returned when a process survives the full
	// termination escalation (SIGTERM, poll, SIGKILL).
	ErrStopFailed = errors.New("service did not stop")

	// ErrNotRunning is returned by Send when there is no live instance
	// to talk to.
	ErrNotRunning = errors.New("service not running")

	// ErrConnection is returned by Send for transport failures other
	// than a missing instance.
	ErrConnection = errors.New("control connection failed")

	// ErrSocketInUse is returned when the configured socket path is
	// held by a live peer (it answered the reclamation ping).
	ErrSocketInUse = errors.New("socket in use by a live process")
)

// TransportPermissionError reports a permission failure while binding or
// applying ownership to a control-socket address.
type TransportPermissionError struct {
	// Addr is the socket path or TCP address that could not be used.
	Addr string

	// Cause is the underlying OS error.
	Cause error
}

// Error implements the error interface.
func (e *TransportPermissionError) Error() string {
	return fmt.Sprintf("permission denied on control address %s: %v", e.Addr, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransportPermissionError) Unwrap() error {
	return e.Cause
}

// PathPermissionError reports a PID-file path that could not be created
// or made writable.
type PathPermissionError struct {
	// Path is the offending filesystem path.
	Path string

	// Cause is the underlying OS error.
	Cause error
}

// Error implements the error interface.
func (e *PathPermissionError) Error() string {
	return fmt.Sprintf("path %s is not writable: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *PathPermissionError) Unwrap() error {
	return e.Cause
}

// ConfigError reports a configuration key that failed to load or
// validate.
type ConfigError struct {
	// Key is the configuration field or section involved.
	Key string

	// Reason describes what went wrong.
	Reason string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// PrivilegeError reports a failed privilege drop: either the configured
// user/group name did not resolve, or the OS refused the id change.
type PrivilegeError struct {
	// Name is the user or group name involved.
	Name string

	// Kind is "user" or "group".
	Kind string

	// Cause is the underlying lookup or syscall error.
	Cause error
}

// Error implements the error interface.
func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("cannot drop privileges to %s %q: %v", e.Kind, e.Name, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *PrivilegeError) Unwrap() error {
	return e.Cause
}
