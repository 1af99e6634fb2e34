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
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()

	handle, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer handle.Close()

	var events []Event
	scanner := bufio.NewScanner(handle)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode journal line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "journal.jsonl")
	j := NewJournal(path, "echod")

	if err := j.Start("detaching"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := j.StartSuccess(4321, 0); err != nil {
		t.Fatalf("StartSuccess() error = %v", err)
	}
	if err := j.Stop(4321, true); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := j.StartFailure(errors.New("bind refused")); err != nil {
		t.Fatalf("StartFailure() error = %v", err)
	}
	if err := j.StopFailure(4321, errors.New("still alive after SIGKILL")); err != nil {
		t.Fatalf("StopFailure() error = %v", err)
	}

	events := readEvents(t, path)
	if len(events) != 5 {
		t.Fatalf("journal has %d events, want 5", len(events))
	}

	if events[0].Event != "start" || events[0].Service != "echod" {
		t.Errorf("event[0] = %+v", events[0])
	}
	if events[1].Event != "start_success" || events[1].PID != 4321 {
		t.Errorf("event[1] = %+v", events[1])
	}
	if events[2].Event != "stop" || events[2].Message != "forced stop" {
		t.Errorf("event[2] = %+v", events[2])
	}
	if events[3].Event != "start_failure" || events[3].Error != "bind refused" {
		t.Errorf("event[3] = %+v", events[3])
	}
	if events[4].Event != "stop" || events[4].Success || events[4].Message != "still alive after SIGKILL" {
		t.Errorf("event[4] = %+v", events[4])
	}
	for i, ev := range events {
		if ev.Timestamp.IsZero() {
			t.Errorf("event[%d] has zero timestamp", i)
		}
	}
}

func TestJournalNilSafe(t *testing.T) {
	var j *Journal
	if err := j.Start("noop"); err != nil {
		t.Errorf("nil journal Start() error = %v", err)
	}
	if err := NewJournal("", "svc").StalePID(1); err != nil {
		t.Errorf("pathless journal StalePID() error = %v", err)
	}
}
