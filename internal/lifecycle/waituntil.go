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

import "time"

// WaitUntil re-evaluates the predicate at the given interval until it
// returns true or the timeout elapses. The predicate is always checked
// at least once. Returns whether it succeeded before the deadline.
func WaitUntil(timeout, interval time.Duration, predicate func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if predicate() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
