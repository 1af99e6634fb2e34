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

package transport

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// applyOwnership chowns the socket path to the named owner and group.
// With no explicit group, the owner's primary group is used. Both empty
// is a no-op.
func applyOwnership(path, owner, group string) error {
	if owner == "" && group == "" {
		return nil
	}

	uid, gid := -1, -1

	if owner != "" {
		u, err := user.Lookup(owner)
		if err != nil {
			return fmt.Errorf("resolve socket owner %q: %w", owner, err)
		}
		uid, err = strconv.Atoi(u.Uid)
		if err != nil {
			return fmt.Errorf("resolve socket owner %q: %w", owner, err)
		}
		if group == "" {
			gid, err = strconv.Atoi(u.Gid)
			if err != nil {
				return fmt.Errorf("resolve primary group of %q: %w", owner, err)
			}
		}
	}

	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return fmt.Errorf("resolve socket group %q: %w", group, err)
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return fmt.Errorf("resolve socket group %q: %w", group, err)
		}
	}

	if err := os.Chown(path, uid, gid); err != nil {
		return mapPermission(path, err, "chown socket")
	}
	return nil
}
