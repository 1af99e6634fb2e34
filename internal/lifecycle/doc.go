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

// Package lifecycle manages daemon process lifecycle: PID files,
// liveness probing via signal 0, detached process spawning, privilege
// dropping, and the graceful-then-forceful termination escalation.
//
// The PID file is the only state shared across processes. Access is
// read-then-act without cross-process locking; correctness relies on
// the signal-0 probe, which tolerates races by treating every outcome
// except "no such process" as alive.
package lifecycle
