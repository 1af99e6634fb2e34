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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event is one lifecycle journal record.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"` // "start", "start_success", "stop", "stale_pid", ...
	Service   string    `json:"service,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Journal appends lifecycle events as JSON lines. It survives across
// daemon restarts and is the audit trail for start/stop history.
type Journal struct {
	path    string
	service string
}

// NewJournal creates a journal writing to the given path.
func NewJournal(path, service string) *Journal {
	return &Journal{path: path, service: service}
}

// Start records a start attempt.
func (j *Journal) Start(message string) error {
	return j.write(Event{Event: "start", Success: true, Message: message})
}

// StartSuccess records a confirmed start with the child PID.
func (j *Journal) StartSuccess(pid int, took time.Duration) error {
	return j.write(Event{
		Event:   "start_success",
		PID:     pid,
		Success: true,
		Message: fmt.Sprintf("confirmed alive after %v", took),
	})
}

// StartFailure records a failed start.
func (j *Journal) StartFailure(err error) error {
	return j.write(Event{Event: "start_failure", Error: err.Error()})
}

// AlreadyRunning records a start that found a live instance.
func (j *Journal) AlreadyRunning(pid int) error {
	return j.write(Event{
		Event:   "already_running",
		PID:     pid,
		Success: true,
		Message: "start skipped, instance alive",
	})
}

// Stop records a stop request against the given PID.
func (j *Journal) Stop(pid int, forced bool) error {
	msg := "graceful stop"
	if forced {
		msg = "forced stop"
	}
	return j.write(Event{Event: "stop", PID: pid, Success: true, Message: msg})
}

// StopFailure records a stop attempt whose target outlived escalation.
func (j *Journal) StopFailure(pid int, err error) error {
	return j.write(Event{Event: "stop", PID: pid, Success: false, Message: err.Error()})
}

// StalePID records a liveness record that pointed at a dead process.
func (j *Journal) StalePID(pid int) error {
	return j.write(Event{
		Event:   "stale_pid",
		PID:     pid,
		Success: true,
		Message: "PID record named a dead process",
	})
}

func (j *Journal) write(event Event) error {
	if j == nil || j.path == "" {
		return nil
	}
	event.Timestamp = time.Now()
	event.Service = j.service

	if err := os.MkdirAll(filepath.Dir(j.path), 0700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}
	handle, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer handle.Close()

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode journal event: %w", err)
	}
	if _, err := handle.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	return nil
}
